package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is one till line. UnitPrice is a snapshot of the product price at sale
// time; rows are only changed through an explicit correction.
type Sale struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity       int             `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt      time.Time       `gorm:"index"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
