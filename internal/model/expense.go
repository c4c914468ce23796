package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense categories.
const (
	ExpenseRent        = "rent"
	ExpenseElectricity = "electricity"
	ExpenseWater       = "water"
	ExpenseOther       = "other"
)

// Expense is attributed to its own calendar Date, not to its creation time.
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Description string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Category    string          `gorm:"type:varchar(20);not null"`
	Date        time.Time       `gorm:"type:date;not null;index"`
}
