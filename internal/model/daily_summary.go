package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailySummary is derived data: one row per calendar date, recomputed in
// place from sessions, sales and expenses. Never edited by hand.
type DailySummary struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Date            time.Time       `gorm:"type:date;uniqueIndex;not null"`
	SessionsRevenue decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	SalesRevenue    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ExpensesTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DiscountsTotal  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	NetIncome       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	UpdatedAt       time.Time
}
