package infra

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned by Locker.Acquire when someone else holds the key.
var ErrLockHeld = redislock.ErrNotObtained

// Locker hands out short-lived Redis leases keyed by resource.
type Locker struct {
	client *redislock.Client
	ttl    time.Duration
}

func NewLocker(rdb *redis.Client, ttl time.Duration) *Locker {
	return &Locker{client: redislock.New(rdb), ttl: ttl}
}

// Acquire obtains "lock:<key>" without retrying. The returned release
// func is safe to call once the lease has already expired.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	return l.obtain(ctx, key, nil)
}

// Wait is Acquire with a short linear backoff, for callers that would
// rather queue behind the holder than fail.
func (l *Locker) Wait(ctx context.Context, key string) (func(), error) {
	return l.obtain(ctx, key, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(25*time.Millisecond), 40),
	})
}

func (l *Locker) obtain(ctx context.Context, key string, opts *redislock.Options) (func(), error) {
	if l == nil || l.client == nil {
		return func() {}, nil
	}
	lock, err := l.client.Obtain(ctx, "lock:"+key, l.ttl, opts)
	if err != nil {
		return nil, err
	}
	return func() {
		// the caller's ctx may already be cancelled
		_ = lock.Release(context.Background())
	}, nil
}
