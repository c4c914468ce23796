package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateDebtRequest struct {
	CustomerName string          `json:"customer_name" validate:"required,min=1,max=80"`
	Amount       decimal.Decimal `json:"amount"        validate:"gt=0"`
	Description  *string         `json:"description"   validate:"omitempty,max=200"`
}

type DebtFilter struct {
	Status string `form:"status,default=pending" validate:"oneof=pending paid all"`
}

type DebtResponse struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customer_name"`
	Amount       decimal.Decimal `json:"amount"`
	Description  *string         `json:"description"`
	Status       string          `json:"status"`
	PaidAt       *time.Time      `json:"paid_at"`
	CreatedAt    time.Time       `json:"created_at"`
}
