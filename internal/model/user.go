package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles carried in the bearer token and mirrored on the user row.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User mirrors the identity managed by the external auth provider.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Role      string    `gorm:"type:varchar(20);not null;default:'staff'"`
	CreatedAt time.Time
}
