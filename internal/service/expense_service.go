package service

import (
	"context"
	"fmt"
	"time"

	"playzone/internal/dto"
	"playzone/internal/model"
	"playzone/internal/repository"
	"playzone/internal/summary"

	"github.com/google/uuid"
)

type ExpenseService interface {
	Create(ctx context.Context, req dto.CreateExpenseRequest) (*dto.ExpenseResponse, error)
	List(ctx context.Context, filter dto.ExpenseFilter) ([]dto.ExpenseResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateExpenseRequest) (*dto.ExpenseResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type expenseService struct {
	repo      repository.ExpenseRepository
	summaries SummaryRefresher
	loc       *time.Location
}

func NewExpenseService(repo repository.ExpenseRepository, summaries SummaryRefresher, loc *time.Location) ExpenseService {
	return &expenseService{repo: repo, summaries: summaries, loc: loc}
}

// calendarDay reinterprets a stored date (read back as UTC midnight) as
// midnight of the same date in the venue zone.
func (s *expenseService) calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

func (s *expenseService) Create(ctx context.Context, req dto.CreateExpenseRequest) (*dto.ExpenseResponse, error) {
	day, err := summary.ParseDate(req.Date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date", ErrInvalidInput)
	}
	e := &model.Expense{
		ID:          uuid.New(),
		Description: req.Description,
		Amount:      req.Amount.Round(2),
		Category:    req.Category,
		Date:        day,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	s.summaries.Refresh(ctx, "expense_create", day)
	out := expenseResponse(e)
	return &out, nil
}

func (s *expenseService) List(ctx context.Context, filter dto.ExpenseFilter) ([]dto.ExpenseResponse, error) {
	expenses, err := s.repo.List(ctx, repository.ExpenseQuery{From: filter.From, To: filter.To, Category: filter.Category})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		out = append(out, expenseResponse(&expenses[i]))
	}
	return out, nil
}

// Update recomputes the summary of the old date as well when the date moves.
func (s *expenseService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateExpenseRequest) (*dto.ExpenseResponse, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrExpenseNotFound)
	}
	oldDay := s.calendarDay(e.Date)

	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Amount != nil {
		e.Amount = req.Amount.Round(2)
	}
	if req.Category != nil {
		e.Category = *req.Category
	}
	if req.Date != nil {
		day, err := summary.ParseDate(*req.Date, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date", ErrInvalidInput)
		}
		e.Date = day
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.summaries.Refresh(ctx, "expense_update", oldDay, s.calendarDay(e.Date))
	out := expenseResponse(e)
	return &out, nil
}

func (s *expenseService) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, ErrExpenseNotFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, ErrExpenseNotFound)
	}
	s.summaries.Refresh(ctx, "expense_delete", s.calendarDay(e.Date))
	return nil
}

func expenseResponse(e *model.Expense) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:          e.ID.String(),
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.Date.Format(summary.DateLayout),
	}
}
