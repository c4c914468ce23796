package repository

import (
	"context"
	"time"

	"playzone/internal/model"
	"playzone/internal/summary"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleRepository defines the data access contract for till sales.
type SaleRepository interface {
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	// UpdateAmountsTx rewrites quantity and the derived money columns.
	UpdateAmountsTx(tx *gorm.DB, s *model.Sale) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	// ListBetween returns sales created in [start, end), newest first.
	ListBetween(ctx context.Context, start, end time.Time) ([]model.Sale, error)

	AmountsBetween(ctx context.Context, start, end time.Time) ([]summary.SaleAmounts, error)

	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Omit("Product").Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Product").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *saleRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *saleRepo) UpdateAmountsTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Model(&model.Sale{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"quantity":        s.Quantity,
		"total_price":     s.TotalPrice,
		"discount_amount": s.DiscountAmount,
		"final_amount":    s.FinalAmount,
	}).Error
}

func (r *saleRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Sale{}, "id = ?", id).Error
}

func (r *saleRepo) ListBetween(ctx context.Context, start, end time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).Preload("Product").
		Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) AmountsBetween(ctx context.Context, start, end time.Time) ([]summary.SaleAmounts, error) {
	var rows []summary.SaleAmounts
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("total_price, final_amount").
		Where("created_at >= ? AND created_at < ?", start, end).
		Scan(&rows).Error
	return rows, err
}

func (r *saleRepo) DB() *gorm.DB { return r.db }
