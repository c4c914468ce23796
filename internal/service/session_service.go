package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"playzone/internal/billing"
	"playzone/internal/dto"
	"playzone/internal/infra"
	"playzone/internal/metrics"
	"playzone/internal/model"
	"playzone/internal/repository"
	"playzone/internal/summary"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxActiveListed = 500

type SessionService interface {
	Start(ctx context.Context, req dto.StartSessionRequest) (*dto.SessionResponse, error)
	End(ctx context.Context, id uuid.UUID, req dto.EndSessionRequest) (*dto.SessionResponse, error)
	UpdateControllers(ctx context.Context, id uuid.UUID, n int) (*dto.LiveSessionResponse, error)
	Live(ctx context.Context, id uuid.UUID) (*dto.LiveSessionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error)
	List(ctx context.Context, filter dto.SessionFilter) (*dto.SessionListResponse, error)
	ListActive(ctx context.Context) ([]dto.LiveSessionResponse, error)
	// Tick reprices every active session at now and persists changed totals.
	Tick(ctx context.Context, now time.Time) (int, error)
}

type sessionService struct {
	sessions  repository.SessionRepository
	devices   repository.DeviceRepository
	summaries SummaryRefresher
	locker    Locker
	rates     *infra.RateCardCache
	loc       *time.Location
	clock     Clock
}

func NewSessionService(
	sessions repository.SessionRepository,
	devices repository.DeviceRepository,
	summaries SummaryRefresher,
	locker Locker,
	rates *infra.RateCardCache,
	loc *time.Location,
	clock Clock,
) SessionService {
	return &sessionService{
		sessions:  sessions,
		devices:   devices,
		summaries: summaries,
		locker:    locker,
		rates:     rates,
		loc:       loc,
		clock:     clock,
	}
}

func deviceLockKey(id uuid.UUID) string { return "device:" + id.String() }

// ── Start ─────────────────────────────────────────────────────────────────────
// available → occupied and the session insert commit together. The device
// row is flipped with a conditional UPDATE, and the partial unique index on
// active sessions backs it up. If anything fails after the flip was issued
// the device is released again, but only when no active session holds it.

func (s *sessionService) Start(ctx context.Context, req dto.StartSessionRequest) (resp *dto.SessionResponse, err error) {
	defer func() { metrics.IncSessionTransition("start", transitionResult(err)) }()

	deviceID, err := uuid.Parse(req.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: device_id", ErrInvalidInput)
	}
	if req.Mode == model.BillingTimed && (req.DurationMinutes == nil || *req.DurationMinutes <= 0) {
		return nil, fmt.Errorf("%w: duration_minutes is required for timed sessions", ErrInvalidInput)
	}
	if req.ExtraControllers < 0 {
		return nil, fmt.Errorf("%w: extra_controllers", ErrInvalidInput)
	}

	release, err := lockDevice(ctx, s.locker, deviceLockKey(deviceID))
	if err != nil {
		return nil, err
	}
	defer release()

	device, err := s.devices.FindByID(ctx, deviceID)
	if err != nil {
		return nil, notFound(err, ErrDeviceNotFound)
	}
	if device.Status != model.DeviceAvailable {
		return nil, ErrDeviceNotAvailable
	}

	now := s.clock.Now()
	sess := &model.Session{
		ID:               uuid.New(),
		DeviceID:         deviceID,
		StartTime:        now,
		ExtraControllers: req.ExtraControllers,
		Status:           model.SessionActive,
		BillingMode:      model.BillingOpen,
		TotalCost:        decimal.Zero,
		DiscountPercent:  decimal.Zero,
		DiscountAmount:   decimal.Zero,
		FinalAmount:      decimal.Zero,
		CustomerName:     req.CustomerName,
	}
	if req.Mode == model.BillingTimed {
		end := now.Add(time.Duration(*req.DurationMinutes) * time.Minute)
		sess.BillingMode = model.BillingTimed
		sess.ScheduledEnd = &end
	}

	flipped := false
	txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		ok, err := s.devices.SetStatusTx(tx, deviceID, model.DeviceAvailable, model.DeviceOccupied)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDeviceNotAvailable
		}
		flipped = true
		if err := s.sessions.CreateTx(tx, sess); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDeviceNotAvailable
			}
			return err
		}
		return nil
	})
	if txErr != nil {
		if flipped {
			s.releaseDevice(ctx, deviceID, txErr)
		}
		return nil, txErr
	}

	log.Info().
		Str("session_id", sess.ID.String()).
		Str("device_id", deviceID.String()).
		Str("mode", sess.BillingMode).
		Int("extra_controllers", sess.ExtraControllers).
		Msg("session started")

	s.summaries.Refresh(ctx, "session_start", sess.StartTime)

	sess.Device = device
	out := sessionResponse(sess)
	return &out, nil
}

// releaseDevice is the compensating action of a failed start. Its own
// failure is logged; the caller still returns the original cause.
func (s *sessionService) releaseDevice(ctx context.Context, deviceID uuid.UUID, cause error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	logger := log.With().Str("device_id", deviceID.String()).AnErr("cause", cause).Logger()
	reverted, err := s.devices.ReleaseIfIdle(cctx, deviceID)
	if err != nil {
		logger.Error().Err(err).Msg("session start: device revert failed, device may stay occupied")
		return
	}
	logger.Warn().Bool("reverted", reverted).Msg("session start failed, device revert attempted")
}

// ── End ───────────────────────────────────────────────────────────────────────

func (s *sessionService) End(ctx context.Context, id uuid.UUID, req dto.EndSessionRequest) (resp *dto.SessionResponse, err error) {
	defer func() { metrics.IncSessionTransition("end", transitionResult(err)) }()

	if _, err := billing.ApplyDiscount(decimal.Zero, req.DiscountPercent); err != nil {
		return nil, err
	}

	current, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrSessionNotFound)
	}
	if current.Status == model.SessionCompleted {
		return nil, ErrSessionCompleted
	}

	release, err := lockDevice(ctx, s.locker, deviceLockKey(current.DeviceID))
	if err != nil {
		return nil, err
	}
	defer release()

	rc, err := s.rateCard(ctx, current.DeviceID)
	if err != nil {
		return nil, err
	}

	var ended *model.Session
	txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		sess, err := s.sessions.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return notFound(err, ErrSessionNotFound)
		}
		if sess.Status != model.SessionActive {
			return ErrSessionCompleted
		}

		now := s.clock.Now()
		sess.EndTime = &now
		q := billing.Price(now, sess, rc)
		final, err := billing.ApplyDiscount(q.Total, req.DiscountPercent)
		if err != nil {
			return err
		}
		sess.Status = model.SessionCompleted
		sess.TotalCost = q.Total
		sess.DiscountPercent = req.DiscountPercent
		sess.DiscountAmount = q.Total.Sub(final)
		sess.FinalAmount = final

		ok, err := s.sessions.CompleteTx(tx, sess)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSessionCompleted
		}

		ok, err = s.devices.SetStatusTx(tx, sess.DeviceID, model.DeviceOccupied, model.DeviceAvailable)
		if err != nil {
			return err
		}
		if !ok {
			log.Warn().Str("device_id", sess.DeviceID.String()).Msg("session end: device was not occupied")
		}
		ended = sess
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Str("session_id", ended.ID.String()).
		Str("device_id", ended.DeviceID.String()).
		Str("total", ended.TotalCost.StringFixed(2)).
		Str("final", ended.FinalAmount.StringFixed(2)).
		Msg("session ended")

	s.summaries.Refresh(ctx, "session_end", ended.StartTime)

	ended.Device = current.Device
	out := sessionResponse(ended)
	return &out, nil
}

func transitionResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrDeviceBusy):
		return metrics.ResultBusy
	default:
		return metrics.ResultError
	}
}

// ── Live pricing ──────────────────────────────────────────────────────────────

// rateCard reads through the Redis cache to the device row.
func (s *sessionService) rateCard(ctx context.Context, deviceID uuid.UUID) (billing.RateCard, error) {
	if rc, ok := s.rates.Get(ctx, deviceID); ok {
		return rc, nil
	}
	device, err := s.devices.FindByID(ctx, deviceID)
	if err != nil {
		return billing.RateCard{}, notFound(err, ErrDeviceNotFound)
	}
	rc := billing.RateCardOf(device)
	s.rates.Set(ctx, deviceID, rc)
	return rc, nil
}

func (s *sessionService) Tick(ctx context.Context, now time.Time) (int, error) {
	active, err := s.sessions.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	var firstErr error
	for i := range active {
		sess := &active[i]
		rc, err := s.rateCard(ctx, sess.DeviceID)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		q := billing.Price(now, sess, rc)
		// an expired timed session prices the same on every tick from here on
		if q.Total.Equal(sess.TotalCost) {
			continue
		}
		// live: nothing discounted yet, so final mirrors total
		if _, err := s.sessions.UpdateCost(ctx, sess.ID, q.Total, q.Total); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return len(active), firstErr
}

func (s *sessionService) live(ctx context.Context, sess *model.Session) (*dto.LiveSessionResponse, error) {
	rc, err := s.rateCard(ctx, sess.DeviceID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	q := billing.Price(now, sess, rc)

	out := &dto.LiveSessionResponse{
		SessionResponse:  sessionResponse(sess),
		ElapsedMinutes:   q.Minutes,
		Base:             q.Base.Round(2),
		Surcharge:        q.Surcharge.Round(2),
		Expired:          q.Expired,
		RemainingSeconds: int64(q.Remaining / time.Second),
		ExtraSeconds:     int64(q.ExtraTime / time.Second),
		PricedAt:         now,
	}
	if sess.Status == model.SessionActive {
		out.TotalCost = q.Total
		out.FinalAmount = q.Total
	}
	return out, nil
}

func (s *sessionService) Live(ctx context.Context, id uuid.UUID) (*dto.LiveSessionResponse, error) {
	sess, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrSessionNotFound)
	}
	return s.live(ctx, sess)
}

func (s *sessionService) UpdateControllers(ctx context.Context, id uuid.UUID, n int) (*dto.LiveSessionResponse, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: extra_controllers", ErrInvalidInput)
	}
	ok, err := s.sessions.UpdateControllers(ctx, id, n)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrSessionNotFound)
	}
	if !ok {
		return nil, ErrSessionCompleted
	}
	log.Info().Str("session_id", id.String()).Int("extra_controllers", n).Msg("session controllers changed")
	return s.live(ctx, sess)
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *sessionService) Get(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error) {
	sess, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrSessionNotFound)
	}
	out := sessionResponse(sess)
	return &out, nil
}

func (s *sessionService) List(ctx context.Context, filter dto.SessionFilter) (*dto.SessionListResponse, error) {
	day := s.clock.Now()
	if filter.Date != "" {
		d, err := summary.ParseDate(filter.Date, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date", ErrInvalidInput)
		}
		day = d
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}

	q := repository.SessionQuery{Status: filter.Status, Page: filter.Page, Limit: filter.Limit}
	q.From, q.To = summary.DayBounds(day, s.loc)
	if filter.DeviceID != "" {
		id, err := uuid.Parse(filter.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("%w: device_id", ErrInvalidInput)
		}
		q.DeviceID = &id
	}

	rows, total, err := s.sessions.List(ctx, q)
	if err != nil {
		return nil, err
	}
	resp := &dto.SessionListResponse{Data: make([]dto.SessionResponse, 0, len(rows)), Total: total, Page: filter.Page, Limit: filter.Limit}
	for i := range rows {
		resp.Data = append(resp.Data, sessionResponse(&rows[i]))
	}
	return resp, nil
}

// ListActive is the front-desk board: every running session priced now.
func (s *sessionService) ListActive(ctx context.Context) ([]dto.LiveSessionResponse, error) {
	rows, _, err := s.sessions.List(ctx, repository.SessionQuery{Status: model.SessionActive, Page: 1, Limit: maxActiveListed})
	if err != nil {
		return nil, err
	}
	out := make([]dto.LiveSessionResponse, 0, len(rows))
	for i := range rows {
		l, err := s.live(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, nil
}

func sessionResponse(s *model.Session) dto.SessionResponse {
	out := dto.SessionResponse{
		ID:               s.ID.String(),
		DeviceID:         s.DeviceID.String(),
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		ScheduledEnd:     s.ScheduledEnd,
		Mode:             s.BillingMode,
		Status:           s.Status,
		ExtraControllers: s.ExtraControllers,
		TotalCost:        s.TotalCost,
		DiscountPercent:  s.DiscountPercent,
		DiscountAmount:   s.DiscountAmount,
		FinalAmount:      s.FinalAmount,
		CustomerName:     s.CustomerName,
	}
	if s.Device != nil {
		out.DeviceName = s.Device.Name
	}
	return out
}
