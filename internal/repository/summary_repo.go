package repository

import (
	"context"

	"playzone/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SummaryRepository persists the derived per-date roll-up.
type SummaryRepository interface {
	// Upsert inserts the row for s.Date or overwrites every derived column.
	Upsert(ctx context.Context, s *model.DailySummary) error
	FindByDate(ctx context.Context, day string) (*model.DailySummary, error)
	// ListRange returns stored rows for dates in [from, to], oldest first.
	ListRange(ctx context.Context, from, to string) ([]model.DailySummary, error)
}

type summaryRepo struct{ db *gorm.DB }

func NewSummaryRepository(db *gorm.DB) SummaryRepository { return &summaryRepo{db: db} }

func (r *summaryRepo) Upsert(ctx context.Context, s *model.DailySummary) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sessions_revenue", "sales_revenue", "expenses_total",
			"discounts_total", "net_income", "updated_at",
		}),
	}).Create(s).Error
}

func (r *summaryRepo) FindByDate(ctx context.Context, day string) (*model.DailySummary, error) {
	var s model.DailySummary
	err := r.db.WithContext(ctx).Where("date = ?::date", day).First(&s).Error
	return &s, err
}

func (r *summaryRepo) ListRange(ctx context.Context, from, to string) ([]model.DailySummary, error) {
	var rows []model.DailySummary
	err := r.db.WithContext(ctx).
		Where("date >= ?::date AND date <= ?::date", from, to).
		Order("date ASC").Find(&rows).Error
	return rows, err
}
