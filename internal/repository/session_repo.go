package repository

import (
	"context"
	"time"

	"playzone/internal/model"
	"playzone/internal/summary"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionQuery filters GET /v1/sessions. Zero fields are ignored.
type SessionQuery struct {
	From, To time.Time // start_time in [From, To)
	Status   string
	DeviceID *uuid.UUID
	Page     int
	Limit    int
}

// SessionRepository defines the data access contract for play sessions.
type SessionRepository interface {
	CreateTx(tx *gorm.DB, s *model.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	// FindByIDForUpdateTx locks the row for the rest of the transaction.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Session, error)
	List(ctx context.Context, q SessionQuery) ([]model.Session, int64, error)
	// ListActive is the ticker's read: no device preload, rate cards come
	// from the cache.
	ListActive(ctx context.Context) ([]model.Session, error)

	// UpdateCost persists a live tick. Only active rows are touched so a tick
	// racing an End can never overwrite the final amounts.
	UpdateCost(ctx context.Context, id uuid.UUID, total, final decimal.Decimal) (bool, error)
	UpdateControllers(ctx context.Context, id uuid.UUID, n int) (bool, error)
	// CompleteTx writes the terminal state; false when the row was not active.
	CompleteTx(tx *gorm.DB, s *model.Session) (bool, error)

	// AmountsBetween returns the summary inputs of sessions started in [start, end).
	AmountsBetween(ctx context.Context, start, end time.Time) ([]summary.SessionAmounts, error)

	DB() *gorm.DB
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) CreateTx(tx *gorm.DB, s *model.Session) error {
	return tx.Omit("Device").Create(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).Preload("Device").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *sessionRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Session, error) {
	var s model.Session
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *sessionRepo) List(ctx context.Context, q SessionQuery) ([]model.Session, int64, error) {
	var sessions []model.Session
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Session{})
	if !q.From.IsZero() {
		db = db.Where("start_time >= ?", q.From)
	}
	if !q.To.IsZero() {
		db = db.Where("start_time < ?", q.To)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.DeviceID != nil {
		db = db.Where("device_id = ?", *q.DeviceID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	err := db.Preload("Device").Order("start_time DESC").Limit(q.Limit).Offset(offset).Find(&sessions).Error
	return sessions, total, err
}

func (r *sessionRepo) ListActive(ctx context.Context) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.WithContext(ctx).
		Where("status = ?", model.SessionActive).
		Order("start_time ASC").Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepo) UpdateCost(ctx context.Context, id uuid.UUID, total, final decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND status = ?", id, model.SessionActive).
		Updates(map[string]interface{}{"total_cost": total, "final_amount": final})
	return res.RowsAffected == 1, res.Error
}

func (r *sessionRepo) UpdateControllers(ctx context.Context, id uuid.UUID, n int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND status = ?", id, model.SessionActive).
		Update("extra_controllers", n)
	return res.RowsAffected == 1, res.Error
}

func (r *sessionRepo) CompleteTx(tx *gorm.DB, s *model.Session) (bool, error) {
	res := tx.Model(&model.Session{}).
		Where("id = ? AND status = ?", s.ID, model.SessionActive).
		Updates(map[string]interface{}{
			"status":           model.SessionCompleted,
			"end_time":         s.EndTime,
			"total_cost":       s.TotalCost,
			"discount_percent": s.DiscountPercent,
			"discount_amount":  s.DiscountAmount,
			"final_amount":     s.FinalAmount,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *sessionRepo) AmountsBetween(ctx context.Context, start, end time.Time) ([]summary.SessionAmounts, error) {
	var rows []summary.SessionAmounts
	err := r.db.WithContext(ctx).Model(&model.Session{}).
		Select("status, total_cost, final_amount").
		Where("start_time >= ? AND start_time < ?", start, end).
		Scan(&rows).Error
	return rows, err
}

func (r *sessionRepo) DB() *gorm.DB { return r.db }
