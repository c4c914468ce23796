package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type StartSessionRequest struct {
	DeviceID string `json:"device_id" validate:"required,uuid"`
	Mode     string `json:"mode"      validate:"required,oneof=open timed"`
	// DurationMinutes is the booked length of a timed session.
	DurationMinutes  *int    `json:"duration_minutes"  validate:"required_if=Mode timed,omitempty,min=1,max=1440"`
	ExtraControllers int     `json:"extra_controllers" validate:"min=0,max=8"`
	CustomerName     *string `json:"customer_name"     validate:"omitempty,max=80"`
}

type EndSessionRequest struct {
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"min=0,max=100"`
}

type UpdateControllersRequest struct {
	ExtraControllers *int `json:"extra_controllers" validate:"required,min=0,max=8"`
}

// ─── Filter / List ───────────────────────────────────────────────────────────

// SessionFilter is bound from the query string of GET /v1/sessions.
type SessionFilter struct {
	Date     string `form:"date"      validate:"omitempty,datetime=2006-01-02"` // empty = today
	Status   string `form:"status"    validate:"omitempty,oneof=active completed"`
	DeviceID string `form:"device_id" validate:"omitempty,uuid"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SessionListResponse struct {
	Data  []SessionResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SessionResponse struct {
	ID               string          `json:"id"`
	DeviceID         string          `json:"device_id"`
	DeviceName       string          `json:"device_name,omitempty"`
	StartTime        time.Time       `json:"start_time"`
	EndTime          *time.Time      `json:"end_time"`
	ScheduledEnd     *time.Time      `json:"scheduled_end"`
	Mode             string          `json:"mode"`
	Status           string          `json:"status"`
	ExtraControllers int             `json:"extra_controllers"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	DiscountPercent  decimal.Decimal `json:"discount_percent"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	FinalAmount      decimal.Decimal `json:"final_amount"`
	CustomerName     *string         `json:"customer_name"`
}

// LiveSessionResponse is the countdown/ticker view of an active session,
// priced at request time and not persisted.
type LiveSessionResponse struct {
	SessionResponse
	ElapsedMinutes   int64           `json:"elapsed_minutes"`
	Base             decimal.Decimal `json:"base"`
	Surcharge        decimal.Decimal `json:"surcharge"`
	Expired          bool            `json:"expired"`
	RemainingSeconds int64           `json:"remaining_seconds"`
	ExtraSeconds     int64           `json:"extra_seconds"`
	PricedAt         time.Time       `json:"priced_at"`
}
