package handler

import (
	"net/http"

	"playzone/internal/dto"
	"playzone/internal/service"

	"github.com/gin-gonic/gin"
)

type DebtsHandler struct{ svc service.DebtService }

func NewDebtsHandler(svc service.DebtService) *DebtsHandler { return &DebtsHandler{svc: svc} }

// Create godoc
// @Summary      Record a customer debt
// @Tags         debts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.CreateDebtRequest true "Debt"
// @Success      201  {object} dto.DebtResponse
// @Router       /v1/debts [post]
func (h *DebtsHandler) Create(c *gin.Context) {
	var req dto.CreateDebtRequest
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

// List godoc
// @Summary      List debts
// @Tags         debts
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "pending (default) | paid | all"
// @Success      200 {array} dto.DebtResponse
// @Router       /v1/debts [get]
func (h *DebtsHandler) List(c *gin.Context) {
	var filter dto.DebtFilter
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

// MarkPaid godoc
// @Summary      Mark a debt as paid
// @Tags         debts
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Debt UUID"
// @Success      200 {object} dto.DebtResponse
// @Failure      409 {object} apierror.APIError "already paid"
// @Router       /v1/debts/{id}/pay [post]
func (h *DebtsHandler) MarkPaid(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.MarkPaid(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DebtsHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
