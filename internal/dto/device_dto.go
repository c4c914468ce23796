package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateDeviceRequest struct {
	Name                string          `json:"name"                  validate:"required,min=1,max=80"`
	Type                string          `json:"type"                  validate:"required,oneof=external internal vip"`
	HourlyRate          decimal.Decimal `json:"hourly_rate"           validate:"gt=0"`
	ExtraControllerRate decimal.Decimal `json:"extra_controller_rate" validate:"min=0"`
	Location            *string         `json:"location"              validate:"omitempty,max=120"`
}

// UpdateDeviceRequest changes the setup of a device. Status is not here:
// only the session lifecycle and the maintenance toggle move it.
type UpdateDeviceRequest struct {
	Name                *string          `json:"name"                  validate:"omitempty,min=1,max=80"`
	Type                *string          `json:"type"                  validate:"omitempty,oneof=external internal vip"`
	HourlyRate          *decimal.Decimal `json:"hourly_rate"           validate:"omitempty,gt=0"`
	ExtraControllerRate *decimal.Decimal `json:"extra_controller_rate" validate:"omitempty,min=0"`
	Location            *string          `json:"location"              validate:"omitempty,max=120"`
}

type SetMaintenanceRequest struct {
	Maintenance bool `json:"maintenance"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type DeviceFilter struct {
	Status string `form:"status" validate:"omitempty,oneof=available occupied maintenance"`
	Type   string `form:"type"   validate:"omitempty,oneof=external internal vip"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DeviceResponse struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Type                string          `json:"type"`
	Status              string          `json:"status"`
	HourlyRate          decimal.Decimal `json:"hourly_rate"`
	ExtraControllerRate decimal.Decimal `json:"extra_controller_rate"`
	Location            *string         `json:"location"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
