package handler

import (
	"net/http"

	"playzone/internal/apierror"
	"playzone/internal/dto"
	"playzone/internal/middleware"
	"playzone/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UsersHandler struct{ svc service.UserService }

func NewUsersHandler(svc service.UserService) *UsersHandler { return &UsersHandler{svc: svc} }

// principal turns the verified token claims into a service identity.
func principal(c *gin.Context) (service.Principal, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.WithCode("unauthenticated", "authentication required"))
		return service.Principal{}, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.WithCode("unauthenticated", "token subject is not a user id"))
		return service.Principal{}, false
	}
	return service.Principal{ID: id, Email: claims.Email, Role: claims.Role}, true
}

// Me godoc
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.UserResponse
// @Router       /v1/me [get]
func (h *UsersHandler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	resp, err := h.svc.Me(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateMe godoc
// @Summary      Update own email
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.UpdateMeRequest true "Email"
// @Success      200  {object} dto.UserResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/me [put]
func (h *UsersHandler) UpdateMe(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.UpdateMeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	// the row may not exist yet on a first call
	if _, err := h.svc.Me(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.UpdateMe(c.Request.Context(), p, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsersHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
