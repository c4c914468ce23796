package repository

import (
	"context"

	"playzone/internal/dto"
	"playzone/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceRepository defines the data access contract for devices.
// Status changes go through the conditional methods only, so a device can
// never be flipped out of a state it is not actually in.
type DeviceRepository interface {
	Create(ctx context.Context, d *model.Device) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Device, error)
	List(ctx context.Context, filter dto.DeviceFilter) ([]model.Device, error)
	// Update writes setup fields (name, type, rates, location), never status.
	Update(ctx context.Context, d *model.Device) error
	// DeleteIfNotOccupied removes the device unless a session holds it.
	DeleteIfNotOccupied(ctx context.Context, id uuid.UUID) (bool, error)

	// SetStatusTx moves the device from one status to another and reports
	// whether the row was in the expected state. Callers must pass the tx.
	SetStatusTx(tx *gorm.DB, id uuid.UUID, from, to string) (bool, error)

	// ReleaseIfIdle is the compensating action of a failed session start:
	// occupied → available, only when no active session exists for the device.
	ReleaseIfIdle(ctx context.Context, id uuid.UUID) (bool, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type deviceRepo struct{ db *gorm.DB }

func NewDeviceRepository(db *gorm.DB) DeviceRepository { return &deviceRepo{db: db} }

func (r *deviceRepo) Create(ctx context.Context, d *model.Device) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *deviceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Device, error) {
	var d model.Device
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	return &d, err
}

func (r *deviceRepo) List(ctx context.Context, filter dto.DeviceFilter) ([]model.Device, error) {
	var devices []model.Device
	q := r.db.WithContext(ctx).Model(&model.Device{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	err := q.Order("name ASC").Find(&devices).Error
	return devices, err
}

func (r *deviceRepo) Update(ctx context.Context, d *model.Device) error {
	return r.db.WithContext(ctx).Model(&model.Device{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
		"name":                  d.Name,
		"type":                  d.Type,
		"hourly_rate":           d.HourlyRate,
		"extra_controller_rate": d.ExtraControllerRate,
		"location":              d.Location,
	}).Error
}

func (r *deviceRepo) DeleteIfNotOccupied(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status <> ?", id, model.DeviceOccupied).
		Delete(&model.Device{})
	return res.RowsAffected == 1, res.Error
}

func (r *deviceRepo) SetStatusTx(tx *gorm.DB, id uuid.UUID, from, to string) (bool, error) {
	res := tx.Model(&model.Device{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

func (r *deviceRepo) ReleaseIfIdle(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE devices SET status = ?, updated_at = NOW()
		WHERE id = ? AND status = ?
		  AND NOT EXISTS (SELECT 1 FROM sessions WHERE device_id = ? AND status = ?)`,
		model.DeviceAvailable, id, model.DeviceOccupied, id, model.SessionActive)
	return res.RowsAffected == 1, res.Error
}

func (r *deviceRepo) DB() *gorm.DB { return r.db }
