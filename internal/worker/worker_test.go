package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"playzone/internal/dto"
	"playzone/internal/summary"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type stubReports struct {
	days    []time.Time
	getErr  error
	summary dto.SummaryResponse
}

func (s *stubReports) Get(_ context.Context, day time.Time) (*dto.SummaryResponse, error) {
	s.days = append(s.days, day)
	if s.getErr != nil {
		return nil, s.getErr
	}
	out := s.summary
	return &out, nil
}

func (s *stubReports) ExportXLSX(_ context.Context, _, _ time.Time) ([]byte, error) {
	return []byte("PK\x03\x04"), nil
}

type stubSender struct {
	disabled bool
	sent     int
	to       []string
	subject  string
	body     string
	filename string
}

func (s *stubSender) Enabled() bool { return !s.disabled }

func (s *stubSender) SendReport(to []string, subject, body, filename string, _ []byte) error {
	s.sent++
	s.to, s.subject, s.body, s.filename = to, subject, body, filename
	return nil
}

type stubRecomputer struct{ days []string }

func (s *stubRecomputer) Recompute(_ context.Context, day time.Time) error {
	s.days = append(s.days, day.Format(summary.DateLayout))
	return nil
}

type stubQueue struct {
	rebuilds []string
	reports  []ReportEmailPayload
}

func (q *stubQueue) EnqueueSummaryRebuild(_ context.Context, day string) error {
	q.rebuilds = append(q.rebuilds, day)
	return nil
}

func (q *stubQueue) EnqueueReportEmail(_ context.Context, p ReportEmailPayload) error {
	q.reports = append(q.reports, p)
	return nil
}

type stubPricer struct {
	calls int
	panic bool
}

func (p *stubPricer) Tick(_ context.Context, _ time.Time) (int, error) {
	p.calls++
	if p.panic {
		panic("boom")
	}
	return 2, nil
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

// ── Email worker ──────────────────────────────────────────────────────────────

func TestEmailWorker_SendsReport(t *testing.T) {
	reports := &stubReports{summary: dto.SummaryResponse{Date: "2026-05-01", NetIncome: decimal.RequireFromString("42.5")}}
	sender := &stubSender{}
	w := NewEmailWorker(reports, sender, time.UTC)

	err := w.Process(context.Background(), payload(t, ReportEmailPayload{Date: "2026-05-01", To: []string{"owner@venue.test"}}))

	require.NoError(t, err)
	assert.Equal(t, 1, sender.sent)
	assert.Equal(t, "Closing report 2026-05-01", sender.subject)
	assert.Equal(t, "summary-2026-05-01.xlsx", sender.filename)
	assert.Contains(t, sender.body, "Net income:       42.50")
	require.Len(t, reports.days, 1)
	assert.Equal(t, "2026-05-01", reports.days[0].Format(summary.DateLayout))
}

func TestEmailWorker_NoRecipients(t *testing.T) {
	sender := &stubSender{}
	w := NewEmailWorker(&stubReports{}, sender, time.UTC)

	require.NoError(t, w.Process(context.Background(), payload(t, ReportEmailPayload{Date: "2026-05-01"})))
	assert.Zero(t, sender.sent)
}

func TestEmailWorker_BadPayloadIsPermanent(t *testing.T) {
	w := NewEmailWorker(&stubReports{}, &stubSender{}, time.UTC)

	err := w.Process(context.Background(), payload(t, ReportEmailPayload{Date: "05/01/2026", To: []string{"x@y.z"}}))
	assert.ErrorIs(t, err, ErrPermanent)

	err = w.Process(context.Background(), json.RawMessage(`{"date":`))
	assert.ErrorIs(t, err, ErrPermanent)
}

func TestEmailWorker_DisabledMailerIsPermanent(t *testing.T) {
	sender := &stubSender{disabled: true}
	w := NewEmailWorker(&stubReports{}, sender, time.UTC)

	err := w.Process(context.Background(), payload(t, ReportEmailPayload{Date: "2026-05-01", To: []string{"x@y.z"}}))

	assert.ErrorIs(t, err, ErrPermanent)
	assert.Zero(t, sender.sent)
}

func TestEmailWorker_SourceErrorIsRetryable(t *testing.T) {
	boom := errors.New("db down")
	w := NewEmailWorker(&stubReports{getErr: boom}, &stubSender{}, time.UTC)

	err := w.Process(context.Background(), payload(t, ReportEmailPayload{Date: "2026-05-01", To: []string{"x@y.z"}}))

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrPermanent)
}

// ── Rebuild worker ────────────────────────────────────────────────────────────

func TestRebuildWorker(t *testing.T) {
	rec := &stubRecomputer{}
	w := NewRebuildWorker(rec, time.UTC)

	require.NoError(t, w.Process(context.Background(), payload(t, RebuildPayload{Date: "2026-05-01"})))
	assert.Equal(t, []string{"2026-05-01"}, rec.days)

	assert.ErrorIs(t, w.Process(context.Background(), payload(t, RebuildPayload{Date: "yesterday"})), ErrPermanent)
}

// ── Scheduler ─────────────────────────────────────────────────────────────────

func TestScheduler_EnqueuesYesterdayInVenueZone(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	q := &stubQueue{}
	s, err := NewScheduler(loc, Schedules{ReportTo: []string{"owner@venue.test"}}, NewSessionTicker(&stubPricer{}), q)
	require.NoError(t, err)
	// 02:00 UTC on the 3rd is still the 2nd in the venue
	s.now = func() time.Time { return time.Date(2026, 5, 3, 2, 0, 0, 0, time.UTC) }

	s.enqueueRebuild()
	s.enqueueReport()

	assert.Equal(t, []string{"2026-05-01"}, q.rebuilds)
	require.Len(t, q.reports, 1)
	assert.Equal(t, "2026-05-01", q.reports[0].Date)
}

func TestScheduler_ReportWithoutRecipientsIsSkipped(t *testing.T) {
	q := &stubQueue{}
	s, err := NewScheduler(time.UTC, Schedules{}, NewSessionTicker(&stubPricer{}), q)
	require.NoError(t, err)

	s.enqueueReport()

	assert.Empty(t, q.reports)
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(time.UTC, Schedules{SummaryRebuild: "every night"}, NewSessionTicker(&stubPricer{}), &stubQueue{})
	assert.Error(t, err)
}

func TestScheduler_AcceptsSecondsAndDescriptors(t *testing.T) {
	s, err := NewScheduler(time.UTC, Schedules{
		SessionTick:    "@every 1s",
		SummaryRebuild: "@daily",
		ReportEmail:    "0 5 0 * * *",
	}, NewSessionTicker(&stubPricer{}), &stubQueue{})
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 3)
}

// ── Ticker / pool ─────────────────────────────────────────────────────────────

func TestSessionTicker_RecoversPanics(t *testing.T) {
	p := &stubPricer{panic: true}
	ticker := NewSessionTicker(p)

	assert.NotPanics(t, ticker.Run)
	assert.Equal(t, 1, p.calls)
}

func TestSafeRun_TurnsPanicIntoError(t *testing.T) {
	err := safeRun(context.Background(), func(context.Context, json.RawMessage) error {
		panic("handler exploded")
	}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler exploded")
}

// ── Pool ──────────────────────────────────────────────────────────────────────

// countingHook counts commands sent through a go-redis client.
type countingHook struct{ calls atomic.Int64 }

func (h *countingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *countingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.calls.Add(1)
		return next(ctx, cmd)
	}
}

func (h *countingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func unreachableRedis() (*redis.Client, *countingHook) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
	hook := &countingHook{}
	rdb.AddHook(hook)
	return rdb, hook
}

func TestPool_BacksOffWhileRedisIsDown(t *testing.T) {
	rdb, hook := unreachableRedis()
	defer rdb.Close()

	p := NewPool(rdb)
	p.retryDelay = 50 * time.Millisecond
	p.Handle(QueueSummaryRebuild, func(context.Context, json.RawMessage) error { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		p.run(ctx, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	calls := hook.calls.Load()
	assert.GreaterOrEqual(t, calls, int64(1))
	assert.LessOrEqual(t, calls, int64(10), "BRPOP retried without pause")
}

func TestDLQDepths_RedisDown(t *testing.T) {
	rdb, _ := unreachableRedis()
	defer rdb.Close()

	_, err := DLQDepths(context.Background(), rdb)
	assert.Error(t, err)
}
