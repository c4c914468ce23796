package worker

import (
	"context"
	"fmt"
	"time"

	"playzone/internal/summary"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// JobQueue is what the scheduler enqueues into; *Dispatcher implements it.
type JobQueue interface {
	EnqueueSummaryRebuild(ctx context.Context, day string) error
	EnqueueReportEmail(ctx context.Context, payload ReportEmailPayload) error
}

// Schedules holds the cron specs. An empty spec disables that job.
type Schedules struct {
	SessionTick    string
	SummaryRebuild string
	ReportEmail    string
	ReportTo       []string
}

// Scheduler owns the process-wide cron: the live session tick, the nightly
// summary rebuild and the closing report.
type Scheduler struct {
	cron *cron.Cron
	loc  *time.Location
	jobs JobQueue
	to   []string
	now  func() time.Time
}

func NewScheduler(loc *time.Location, specs Schedules, ticker *SessionTicker, jobs JobQueue) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(cronParser),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
		),
		loc:  loc,
		jobs: jobs,
		to:   specs.ReportTo,
		now:  time.Now,
	}

	entries := []struct {
		name, spec string
		fn         func()
	}{
		{"session tick", specs.SessionTick, ticker.Run},
		{"summary rebuild", specs.SummaryRebuild, s.enqueueRebuild},
		{"closing report", specs.ReportEmail, s.enqueueReport},
	}
	for _, e := range entries {
		if e.spec == "" {
			log.Info().Str("job", e.name).Msg("scheduler: disabled")
			continue
		}
		if _, err := s.cron.AddFunc(e.spec, e.fn); err != nil {
			return nil, fmt.Errorf("scheduler: %s spec %q: %w", e.name, e.spec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling; the returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

// yesterday is the last full calendar date in the venue zone.
func (s *Scheduler) yesterday() string {
	return summary.DayStart(s.now(), s.loc).AddDate(0, 0, -1).Format(summary.DateLayout)
}

// enqueueRebuild re-derives yesterday from the base rows, catching anything a
// synchronous recompute missed.
func (s *Scheduler) enqueueRebuild() {
	day := s.yesterday()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.jobs.EnqueueSummaryRebuild(ctx, day); err != nil {
		log.Error().Err(err).Str("date", day).Msg("scheduler: enqueue rebuild failed")
	}
}

func (s *Scheduler) enqueueReport() {
	if len(s.to) == 0 {
		return
	}
	day := s.yesterday()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.jobs.EnqueueReportEmail(ctx, ReportEmailPayload{Date: day, To: s.to}); err != nil {
		log.Error().Err(err).Str("date", day).Msg("scheduler: enqueue report failed")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
