package service

import (
	"errors"

	"playzone/internal/billing"

	"gorm.io/gorm"
)

// Domain errors. Handlers map them with errors.Is; anything else is treated
// as a storage failure and never shown to the client verbatim.
var (
	ErrDeviceNotFound     = errors.New("device not found")
	ErrDeviceNotAvailable = errors.New("device is not available")
	ErrDeviceOccupied     = errors.New("device has an active session")
	ErrDeviceBusy         = errors.New("device is being updated, try again")
	ErrDeviceHasHistory   = errors.New("device has recorded sessions, put it in maintenance instead")

	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionCompleted = errors.New("session is already completed")

	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductHasSales   = errors.New("product has recorded sales")
	ErrSaleNotFound      = errors.New("sale not found")

	ErrExpenseNotFound = errors.New("expense not found")

	ErrDebtNotFound    = errors.New("debt not found")
	ErrDebtAlreadyPaid = errors.New("debt is already paid")

	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email is already in use")

	ErrInvalidRange = errors.New("invalid date range")
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDiscount is re-exported so handlers need not import billing.
	ErrInvalidDiscount = billing.ErrInvalidDiscount
)

// notFound translates gorm's sentinel into a domain error.
func notFound(err, domain error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain
	}
	return err
}
