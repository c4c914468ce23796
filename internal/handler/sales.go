package handler

import (
	"net/http"

	"playzone/internal/dto"
	"playzone/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// Create godoc
// @Summary      Record a till sale
// @Description  Snapshots the unit price and decrements stock in one transaction.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.CreateSaleRequest true "Sale"
// @Success      201  {object} dto.SaleResponse
// @Failure      409  {object} apierror.APIError "insufficient stock"
// @Router       /v1/sales [post]
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Correct godoc
// @Summary      Correct quantity or discount of a sale
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                 true "Sale UUID"
// @Param        body body     dto.CorrectSaleRequest true "Correction"
// @Success      200  {object} dto.SaleResponse
// @Router       /v1/sales/{id} [put]
func (h *SalesHandler) Correct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.CorrectSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Correct(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Void godoc
// @Summary      Void a sale and restock
// @Tags         sales
// @Security     BearerAuth
// @Param        id path string true "Sale UUID"
// @Success      204
// @Router       /v1/sales/{id} [delete]
func (h *SalesHandler) Void(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Void(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List godoc
// @Summary      List sales of a date
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        date query string false "YYYY-MM-DD, default today"
// @Success      200 {array} dto.SaleResponse
// @Router       /v1/sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
