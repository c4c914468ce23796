package worker

import (
	"context"
	"time"

	"playzone/internal/metrics"

	"github.com/rs/zerolog/log"
)

// SessionPricer reprices every active session at now and returns how many
// it looked at.
type SessionPricer interface {
	Tick(ctx context.Context, now time.Time) (int, error)
}

// SessionTicker drives the live cost of active sessions. It owns the cadence;
// the cost function itself keeps no timer state.
type SessionTicker struct {
	sessions SessionPricer
	now      func() time.Time
	timeout  time.Duration
}

func NewSessionTicker(sessions SessionPricer) *SessionTicker {
	return &SessionTicker{sessions: sessions, now: time.Now, timeout: 5 * time.Second}
}

// Run performs one tick. Meant to be scheduled; never panics.
func (t *SessionTicker) Run() {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("session_ticker: panic recovered")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	start := time.Now()
	n, err := t.sessions.Tick(ctx, t.now())
	metrics.ObserveTick(time.Since(start))
	metrics.SetActiveSessions(n)
	if err != nil {
		log.Error().Err(err).Int("active", n).Msg("session_ticker: tick failed")
	}
}
