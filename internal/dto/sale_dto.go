package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateSaleRequest struct {
	ProductID       string          `json:"product_id"       validate:"required,uuid"`
	Quantity        int             `json:"quantity"         validate:"required,min=1"`
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"min=0,max=100"`
}

// CorrectSaleRequest rewrites quantity and discount of an existing sale.
// The unit price snapshot is kept.
type CorrectSaleRequest struct {
	Quantity        int             `json:"quantity"         validate:"required,min=1"`
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"min=0,max=100"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type SaleFilter struct {
	Date string `form:"date" validate:"omitempty,datetime=2006-01-02"` // empty = today
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	CreatedAt      time.Time       `json:"created_at"`
}
