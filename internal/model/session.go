package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session status values. "completed" is terminal.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// Billing modes, chosen when the session is created.
const (
	BillingOpen  = "open"
	BillingTimed = "timed"
)

// Session is one play session on a device.
// EndTime is nil while the session is running. ScheduledEnd is set only for
// timed sessions; cost stops accruing once it is reached.
// FinalAmount = TotalCost - DiscountAmount; the discount is applied on End only.
type Session struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DeviceID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	StartTime        time.Time       `gorm:"not null;index"`
	EndTime          *time.Time
	ExtraControllers int             `gorm:"not null;default:0"`
	Status           string          `gorm:"type:varchar(20);not null;default:'active'"`
	BillingMode      string          `gorm:"type:varchar(10);not null;default:'open'"`
	ScheduledEnd     *time.Time
	TotalCost        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DiscountPercent  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	DiscountAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	FinalAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CustomerName     *string

	Device *Device `gorm:"foreignKey:DeviceID"`
}

// IsTimed reports whether the session was created with a fixed duration.
func (s *Session) IsTimed() bool {
	return s.BillingMode == BillingTimed && s.ScheduledEnd != nil
}
