package repository

import (
	"context"
	"time"

	"playzone/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DebtRepository defines the data access contract for customer debts.
type DebtRepository interface {
	Create(ctx context.Context, d *model.Debt) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Debt, error)
	// List filters by status; "" or "all" returns every debt.
	List(ctx context.Context, status string) ([]model.Debt, error)
	// MarkPaid flips a pending debt to paid; false when it was not pending.
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type debtRepo struct{ db *gorm.DB }

func NewDebtRepository(db *gorm.DB) DebtRepository { return &debtRepo{db: db} }

func (r *debtRepo) Create(ctx context.Context, d *model.Debt) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *debtRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Debt, error) {
	var d model.Debt
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	return &d, err
}

func (r *debtRepo) List(ctx context.Context, status string) ([]model.Debt, error) {
	var debts []model.Debt
	q := r.db.WithContext(ctx).Model(&model.Debt{})
	if status != "" && status != "all" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").Find(&debts).Error
	return debts, err
}

func (r *debtRepo) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Debt{}).
		Where("id = ? AND status = ?", id, model.DebtPending).
		Updates(map[string]interface{}{"status": model.DebtPaid, "paid_at": at})
	return res.RowsAffected == 1, res.Error
}

func (r *debtRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Debt{}, "id = ?", id)
	if res.Error == nil && res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return res.Error
}
