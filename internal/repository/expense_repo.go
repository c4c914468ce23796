package repository

import (
	"context"

	"playzone/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseQuery bounds are YYYY-MM-DD strings, both inclusive; empty = open.
type ExpenseQuery struct {
	From, To string
	Category string
}

// ExpenseRepository defines the data access contract for expenses.
// Dates are passed as YYYY-MM-DD so the comparison happens on the date
// column itself, independent of the connection time zone.
type ExpenseRepository interface {
	Create(ctx context.Context, e *model.Expense) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	List(ctx context.Context, q ExpenseQuery) ([]model.Expense, error)
	Update(ctx context.Context, e *model.Expense) error
	Delete(ctx context.Context, id uuid.UUID) error
	AmountsOn(ctx context.Context, day string) ([]decimal.Decimal, error)
}

type expenseRepo struct{ db *gorm.DB }

func NewExpenseRepository(db *gorm.DB) ExpenseRepository { return &expenseRepo{db: db} }

func (r *expenseRepo) Create(ctx context.Context, e *model.Expense) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *expenseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Expense, error) {
	var e model.Expense
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	return &e, err
}

func (r *expenseRepo) List(ctx context.Context, q ExpenseQuery) ([]model.Expense, error) {
	var expenses []model.Expense
	db := r.db.WithContext(ctx).Model(&model.Expense{})
	if q.From != "" {
		db = db.Where("date >= ?::date", q.From)
	}
	if q.To != "" {
		db = db.Where("date <= ?::date", q.To)
	}
	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	err := db.Order("date DESC").Find(&expenses).Error
	return expenses, err
}

func (r *expenseRepo) Update(ctx context.Context, e *model.Expense) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *expenseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Expense{}, "id = ?", id)
	if res.Error == nil && res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return res.Error
}

func (r *expenseRepo) AmountsOn(ctx context.Context, day string) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.Expense{}).
		Where("date = ?::date", day).
		Pluck("amount", &amounts).Error
	return amounts, err
}
