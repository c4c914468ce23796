package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"playzone/internal/dto"
	"playzone/internal/infra"
	"playzone/internal/metrics"
	"playzone/internal/model"
	"playzone/internal/repository"
	"playzone/internal/summary"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// maxRangeDays caps report and rebuild ranges.
const maxRangeDays = 366

// SummaryRefresher is what write paths call after they commit.
type SummaryRefresher interface {
	// Refresh recomputes the summary of each distinct date. Failures are
	// logged, not returned: the base write has already committed and the
	// nightly rebuild repairs the row.
	Refresh(ctx context.Context, trigger string, days ...time.Time)
}

// RebuildQueue hands rebuilds to the worker pool; *worker.Dispatcher implements it.
type RebuildQueue interface {
	EnqueueSummaryRebuild(ctx context.Context, day string) error
}

type SummaryService interface {
	SummaryRefresher
	Recompute(ctx context.Context, day time.Time) error
	Get(ctx context.Context, day time.Time) (*dto.SummaryResponse, error)
	Range(ctx context.Context, from, to time.Time) (*dto.SummaryRangeResponse, error)
	RebuildRange(ctx context.Context, from, to time.Time) (int, error)
	ExportXLSX(ctx context.Context, from, to time.Time) ([]byte, error)
}

type summaryService struct {
	sessions  repository.SessionRepository
	sales     repository.SaleRepository
	expenses  repository.ExpenseRepository
	summaries repository.SummaryRepository
	locker    Locker
	queue     RebuildQueue
	loc       *time.Location
	clock     Clock
}

func NewSummaryService(
	sessions repository.SessionRepository,
	sales repository.SaleRepository,
	expenses repository.ExpenseRepository,
	summaries repository.SummaryRepository,
	locker Locker,
	queue RebuildQueue,
	loc *time.Location,
	clock Clock,
) SummaryService {
	return &summaryService{
		sessions:  sessions,
		sales:     sales,
		expenses:  expenses,
		summaries: summaries,
		locker:    locker,
		queue:     queue,
		loc:       loc,
		clock:     clock,
	}
}

// snapshot reads every row attributed to the calendar date of day.
func (s *summaryService) snapshot(ctx context.Context, day time.Time) (time.Time, summary.Snapshot, error) {
	start, end := summary.DayBounds(day, s.loc)
	var snap summary.Snapshot
	var err error

	if snap.Sessions, err = s.sessions.AmountsBetween(ctx, start, end); err != nil {
		return start, snap, fmt.Errorf("load sessions: %w", err)
	}
	if snap.Sales, err = s.sales.AmountsBetween(ctx, start, end); err != nil {
		return start, snap, fmt.Errorf("load sales: %w", err)
	}
	if snap.Expenses, err = s.expenses.AmountsOn(ctx, start.Format(summary.DateLayout)); err != nil {
		return start, snap, fmt.Errorf("load expenses: %w", err)
	}
	return start, snap, nil
}

func (s *summaryService) recompute(ctx context.Context, trigger string, day time.Time) error {
	began := time.Now()
	key := summary.DayStart(day, s.loc).Format(summary.DateLayout)

	// concurrent recomputes of one date must not store an older snapshot last
	release := waitLock(ctx, s.locker, "summary:"+key)
	defer release()

	start, snap, err := s.snapshot(ctx, day)
	if err == nil {
		row := summary.Compute(start, snap)
		row.UpdatedAt = s.clock.Now()
		err = s.summaries.Upsert(ctx, &row)
	}
	metrics.ObserveSummaryRecompute(trigger, err, time.Since(began))
	if err != nil {
		return fmt.Errorf("recompute summary %s: %w", key, err)
	}
	return nil
}

func (s *summaryService) Recompute(ctx context.Context, day time.Time) error {
	return s.recompute(ctx, "rebuild", day)
}

func (s *summaryService) Refresh(ctx context.Context, trigger string, days ...time.Time) {
	seen := make(map[string]bool, len(days))
	for _, d := range days {
		key := summary.DayStart(d, s.loc).Format(summary.DateLayout)
		if seen[key] {
			continue
		}
		seen[key] = true
		err := s.recompute(ctx, trigger, d)
		if err == nil {
			continue
		}
		log.Error().Err(err).Str("trigger", trigger).Str("date", key).Msg("summary refresh failed")
		if s.queue == nil {
			continue
		}
		if qerr := s.queue.EnqueueSummaryRebuild(ctx, key); qerr != nil {
			log.Error().Err(qerr).Str("date", key).Msg("summary refresh: enqueue rebuild failed")
		}
	}
}

// Get returns the stored row; a date nothing was ever recorded on reads as
// all zeros.
func (s *summaryService) Get(ctx context.Context, day time.Time) (*dto.SummaryResponse, error) {
	key := summary.DayStart(day, s.loc).Format(summary.DateLayout)
	row, err := s.summaries.FindByDate(ctx, key)
	if err == nil {
		resp := summaryResponse(*row, key)
		return &resp, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	start, snap, err := s.snapshot(ctx, day)
	if err != nil {
		return nil, err
	}
	resp := summaryResponse(summary.Compute(start, snap), key)
	return &resp, nil
}

func (s *summaryService) checkRange(from, to time.Time) (time.Time, time.Time, error) {
	from, to = summary.DayStart(from, s.loc), summary.DayStart(to, s.loc)
	if to.Before(from) {
		return from, to, fmt.Errorf("%w: from is after to", ErrInvalidRange)
	}
	if to.Sub(from) >= maxRangeDays*24*time.Hour {
		return from, to, fmt.Errorf("%w: more than %d days", ErrInvalidRange, maxRangeDays)
	}
	return from, to, nil
}

// rangeRows returns one row per date in [from, to], zero-filled, plus totals.
func (s *summaryService) rangeRows(ctx context.Context, from, to time.Time) ([]model.DailySummary, model.DailySummary, error) {
	var totals model.DailySummary
	from, to, err := s.checkRange(from, to)
	if err != nil {
		return nil, totals, err
	}
	stored, err := s.summaries.ListRange(ctx, from.Format(summary.DateLayout), to.Format(summary.DateLayout))
	if err != nil {
		return nil, totals, err
	}
	byDate := make(map[string]model.DailySummary, len(stored))
	for _, r := range stored {
		byDate[r.Date.Format(summary.DateLayout)] = r
	}

	dates := summary.Dates(from, to, s.loc)
	rows := make([]model.DailySummary, 0, len(dates))
	for _, d := range dates {
		r, ok := byDate[d.Format(summary.DateLayout)]
		if !ok {
			r = summary.Compute(d, summary.Snapshot{})
		}
		r.Date = d
		rows = append(rows, r)

		totals.SessionsRevenue = totals.SessionsRevenue.Add(r.SessionsRevenue)
		totals.SalesRevenue = totals.SalesRevenue.Add(r.SalesRevenue)
		totals.ExpensesTotal = totals.ExpensesTotal.Add(r.ExpensesTotal)
		totals.DiscountsTotal = totals.DiscountsTotal.Add(r.DiscountsTotal)
		totals.NetIncome = totals.NetIncome.Add(r.NetIncome)
	}
	return rows, totals, nil
}

func (s *summaryService) Range(ctx context.Context, from, to time.Time) (*dto.SummaryRangeResponse, error) {
	rows, totals, err := s.rangeRows(ctx, from, to)
	if err != nil {
		return nil, err
	}
	resp := &dto.SummaryRangeResponse{Days: make([]dto.SummaryResponse, 0, len(rows))}
	for _, r := range rows {
		resp.Days = append(resp.Days, summaryResponse(r, r.Date.Format(summary.DateLayout)))
	}
	label := summary.DayStart(from, s.loc).Format(summary.DateLayout) + ".." +
		summary.DayStart(to, s.loc).Format(summary.DateLayout)
	resp.Totals = summaryResponse(totals, label)
	return resp, nil
}

// RebuildRange re-derives every date in range. With a queue the work is
// handed to the worker pool and the count of queued dates is returned.
func (s *summaryService) RebuildRange(ctx context.Context, from, to time.Time) (int, error) {
	from, to, err := s.checkRange(from, to)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range summary.Dates(from, to, s.loc) {
		if s.queue != nil {
			err = s.queue.EnqueueSummaryRebuild(ctx, d.Format(summary.DateLayout))
		} else {
			err = s.recompute(ctx, "rebuild", d)
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *summaryService) ExportXLSX(ctx context.Context, from, to time.Time) ([]byte, error) {
	rows, totals, err := s.rangeRows(ctx, from, to)
	if err != nil {
		return nil, err
	}
	data, err := infra.SummaryWorkbook(rows, totals)
	metrics.IncExport("xlsx", err)
	return data, err
}

func summaryResponse(r model.DailySummary, date string) dto.SummaryResponse {
	return dto.SummaryResponse{
		Date:            date,
		SessionsRevenue: r.SessionsRevenue.Round(2),
		SalesRevenue:    r.SalesRevenue.Round(2),
		ExpensesTotal:   r.ExpensesTotal.Round(2),
		DiscountsTotal:  r.DiscountsTotal.Round(2),
		NetIncome:       r.NetIncome.Round(2),
	}
}
