package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name     string          `json:"name"     validate:"required,min=2,max=120"`
	Price    decimal.Decimal `json:"price"    validate:"min=0"`
	Stock    int             `json:"stock"    validate:"min=0"`
	Category string          `json:"category" validate:"required,oneof=market coffee"`
}

type UpdateProductRequest struct {
	Name     *string          `json:"name"     validate:"omitempty,min=2,max=120"`
	Price    *decimal.Decimal `json:"price"    validate:"omitempty,min=0"`
	Stock    *int             `json:"stock"    validate:"omitempty,min=0"`
	Category *string          `json:"category" validate:"omitempty,oneof=market coffee"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type ProductFilter struct {
	Name     string `form:"name"`
	Category string `form:"category" validate:"omitempty,oneof=market coffee"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
}
