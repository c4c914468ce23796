package handler

import (
	"net/http"

	"playzone/internal/dto"
	"playzone/internal/service"

	"github.com/gin-gonic/gin"
)

type DevicesHandler struct{ svc service.DeviceService }

func NewDevicesHandler(svc service.DeviceService) *DevicesHandler { return &DevicesHandler{svc: svc} }

// Create godoc
// @Summary      Register a device
// @Tags         devices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body     dto.CreateDeviceRequest true "Device"
// @Success      201  {object} dto.DeviceResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/devices [post]
func (h *DevicesHandler) Create(c *gin.Context) {
	var req dto.CreateDeviceRequest
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
// @Summary      List devices
// @Tags         devices
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "available | occupied | maintenance"
// @Param        type   query string false "external | internal | vip"
// @Success      200 {array} dto.DeviceResponse
// @Router       /v1/devices [get]
func (h *DevicesHandler) List(c *gin.Context) {
	var filter dto.DeviceFilter
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

// Get godoc
// @Summary      Get a device
// @Tags         devices
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Device UUID"
// @Success      200 {object} dto.DeviceResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/devices/{id} [get]
func (h *DevicesHandler) Get(c *gin.Context) {
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

// Update godoc
// @Summary      Update device setup (name, type, rates, location)
// @Tags         devices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                  true "Device UUID"
// @Param        body body     dto.UpdateDeviceRequest true "Fields to change"
// @Success      200  {object} dto.DeviceResponse
// @Router       /v1/devices/{id} [put]
func (h *DevicesHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateDeviceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetMaintenance godoc
// @Summary      Put a device in or out of maintenance
// @Tags         devices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                    true "Device UUID"
// @Param        body body     dto.SetMaintenanceRequest true "Toggle"
// @Success      200  {object} dto.DeviceResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/devices/{id}/maintenance [put]
func (h *DevicesHandler) SetMaintenance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.SetMaintenanceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetMaintenance(c.Request.Context(), id, req.Maintenance)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete a device
// @Tags         devices
// @Security     BearerAuth
// @Param        id path string true "Device UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/devices/{id} [delete]
func (h *DevicesHandler) Delete(c *gin.Context) {
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
