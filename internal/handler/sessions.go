package handler

import (
	"net/http"

	"playzone/internal/dto"
	"playzone/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionsHandler struct{ svc service.SessionService }

func NewSessionsHandler(svc service.SessionService) *SessionsHandler {
	return &SessionsHandler{svc: svc}
}

// Start godoc
// @Summary      Start a play session
// @Description  Occupies the device and opens an open-ended or timed session.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.StartSessionRequest true "Session"
// @Success      201  {object} dto.SessionResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError "device not available or busy"
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/sessions [post]
func (h *SessionsHandler) Start(c *gin.Context) {
	var req dto.StartSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Start(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// End godoc
// @Summary      End a session
// @Description  Fixes the end time, applies the discount and frees the device.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                true "Session UUID"
// @Param        body body     dto.EndSessionRequest true "Discount"
// @Success      200  {object} dto.SessionResponse
// @Failure      409  {object} apierror.APIError "already completed"
// @Router       /v1/sessions/{id}/end [post]
func (h *SessionsHandler) End(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.EndSessionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	resp, err := h.svc.End(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateControllers godoc
// @Summary      Change the extra controllers of a running session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                       true "Session UUID"
// @Param        body body     dto.UpdateControllersRequest true "Controllers"
// @Success      200  {object} dto.LiveSessionResponse
// @Router       /v1/sessions/{id}/controllers [patch]
func (h *SessionsHandler) UpdateControllers(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateControllersRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateControllers(c.Request.Context(), id, *req.ExtraControllers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live godoc
// @Summary      Live quote of a session (countdown view, not persisted)
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Session UUID"
// @Success      200 {object} dto.LiveSessionResponse
// @Router       /v1/sessions/{id}/live [get]
func (h *SessionsHandler) Live(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Live(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SessionsHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List sessions of a date
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        date      query string false "YYYY-MM-DD, default today"
// @Param        status    query string false "active | completed"
// @Param        device_id query string false "Device UUID"
// @Param        page      query int    false "Page"
// @Param        limit     query int    false "Page size"
// @Success      200 {object} dto.SessionListResponse
// @Router       /v1/sessions [get]
func (h *SessionsHandler) List(c *gin.Context) {
	var filter dto.SessionFilter
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

// ListActive godoc
// @Summary      Front-desk board: every running session priced now
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.LiveSessionResponse
// @Router       /v1/sessions/active [get]
func (h *SessionsHandler) ListActive(c *gin.Context) {
	resp, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
