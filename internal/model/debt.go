package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Debt status values.
const (
	DebtPending = "pending"
	DebtPaid    = "paid"
)

// Debt tracks money a customer owes the venue. Debts are not part of the
// daily summary.
type Debt struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerName string          `gorm:"not null;index"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description  *string
	Status       string `gorm:"type:varchar(20);not null;default:'pending'"`
	PaidAt       *time.Time
	CreatedAt    time.Time
}
