package service

import (
	"context"
	"errors"
	"time"

	"playzone/internal/infra"
	"playzone/internal/metrics"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Locker hands out short Redis leases; *infra.Locker implements it.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
	Wait(ctx context.Context, key string) (func(), error)
}

func noop() {}

// lockDevice serializes transitions of one device across API replicas.
// Redis being down degrades to the database guards alone.
func lockDevice(ctx context.Context, l Locker, key string) (func(), error) {
	if l == nil {
		return noop, nil
	}
	release, err := l.Acquire(ctx, key)
	switch {
	case err == nil:
		return release, nil
	case errors.Is(err, infra.ErrLockHeld):
		metrics.IncLockContention()
		return nil, ErrDeviceBusy
	default:
		log.Warn().Err(err).Str("lock", key).Msg("lock backend unavailable, continuing without it")
		return noop, nil
	}
}

// waitLock is lockDevice for work that should queue instead of failing.
// If the holder outlives the wait the caller proceeds unlocked.
func waitLock(ctx context.Context, l Locker, key string) func() {
	if l == nil {
		return noop
	}
	release, err := l.Wait(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("lock", key).Msg("could not obtain lock, continuing without it")
		return noop
	}
	return release
}
