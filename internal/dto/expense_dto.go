package dto

import "github.com/shopspring/decimal"

type CreateExpenseRequest struct {
	Description string          `json:"description" validate:"required,min=1,max=200"`
	Amount      decimal.Decimal `json:"amount"      validate:"min=0"`
	Category    string          `json:"category"    validate:"required,oneof=rent electricity water other"`
	Date        string          `json:"date"        validate:"required,datetime=2006-01-02"`
}

type UpdateExpenseRequest struct {
	Description *string          `json:"description" validate:"omitempty,min=1,max=200"`
	Amount      *decimal.Decimal `json:"amount"      validate:"omitempty,min=0"`
	Category    *string          `json:"category"    validate:"omitempty,oneof=rent electricity water other"`
	Date        *string          `json:"date"        validate:"omitempty,datetime=2006-01-02"`
}

// ExpenseFilter selects expenses by their own date, both bounds inclusive.
type ExpenseFilter struct {
	From     string `form:"from"     validate:"omitempty,datetime=2006-01-02"`
	To       string `form:"to"       validate:"omitempty,datetime=2006-01-02"`
	Category string `form:"category" validate:"omitempty,oneof=rent electricity water other"`
}

type ExpenseResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
}
