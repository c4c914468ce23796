package service

import (
	"context"

	"playzone/internal/dto"
	"playzone/internal/model"
	"playzone/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type DebtService interface {
	Create(ctx context.Context, req dto.CreateDebtRequest) (*dto.DebtResponse, error)
	List(ctx context.Context, filter dto.DebtFilter) ([]dto.DebtResponse, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (*dto.DebtResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type debtService struct {
	repo  repository.DebtRepository
	clock Clock
}

func NewDebtService(repo repository.DebtRepository, clock Clock) DebtService {
	return &debtService{repo: repo, clock: clock}
}

func (s *debtService) Create(ctx context.Context, req dto.CreateDebtRequest) (*dto.DebtResponse, error) {
	d := &model.Debt{
		ID:           uuid.New(),
		CustomerName: req.CustomerName,
		Amount:       req.Amount.Round(2),
		Description:  req.Description,
		Status:       model.DebtPending,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	out := debtResponse(d)
	return &out, nil
}

func (s *debtService) List(ctx context.Context, filter dto.DebtFilter) ([]dto.DebtResponse, error) {
	debts, err := s.repo.List(ctx, filter.Status)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DebtResponse, 0, len(debts))
	for i := range debts {
		out = append(out, debtResponse(&debts[i]))
	}
	return out, nil
}

func (s *debtService) MarkPaid(ctx context.Context, id uuid.UUID) (*dto.DebtResponse, error) {
	ok, err := s.repo.MarkPaid(ctx, id, s.clock.Now())
	if err != nil {
		return nil, err
	}
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrDebtNotFound)
	}
	if !ok {
		return nil, ErrDebtAlreadyPaid
	}
	log.Info().Str("debt_id", id.String()).Str("amount", d.Amount.StringFixed(2)).Msg("debt paid")
	out := debtResponse(d)
	return &out, nil
}

func (s *debtService) Delete(ctx context.Context, id uuid.UUID) error {
	return notFound(s.repo.Delete(ctx, id), ErrDebtNotFound)
}

func debtResponse(d *model.Debt) dto.DebtResponse {
	return dto.DebtResponse{
		ID:           d.ID.String(),
		CustomerName: d.CustomerName,
		Amount:       d.Amount,
		Description:  d.Description,
		Status:       d.Status,
		PaidAt:       d.PaidAt,
		CreatedAt:    d.CreatedAt,
	}
}
