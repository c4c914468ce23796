package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Device type values.
const (
	DeviceTypeExternal = "external"
	DeviceTypeInternal = "internal"
	DeviceTypeVIP      = "vip"
)

// Device status values. Status is mutated only by the session lifecycle
// (and the maintenance toggle, which is only allowed while available).
const (
	DeviceAvailable   = "available"
	DeviceOccupied    = "occupied"
	DeviceMaintenance = "maintenance"
)

// Device is a rentable console station with its own rate card.
type Device struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name                string          `gorm:"not null"`
	Type                string          `gorm:"type:varchar(20);not null"`
	Status              string          `gorm:"type:varchar(20);not null;default:'available'"`
	HourlyRate          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ExtraControllerRate decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Location            *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
