package infra

import (
	"context"
	"encoding/json"
	"time"

	"playzone/internal/billing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateCardCache keeps device rate cards in Redis so the live ticker does not
// reload every device once per second. A nil client disables it.
type RateCardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRateCardCache(rdb *redis.Client, ttl time.Duration) *RateCardCache {
	return &RateCardCache{rdb: rdb, ttl: ttl}
}

func rateCardKey(deviceID uuid.UUID) string { return "ratecard:" + deviceID.String() }

// Get returns the cached card; misses and Redis errors both report false.
func (c *RateCardCache) Get(ctx context.Context, deviceID uuid.UUID) (billing.RateCard, bool) {
	var rc billing.RateCard
	if c == nil || c.rdb == nil {
		return rc, false
	}
	raw, err := c.rdb.Get(ctx, rateCardKey(deviceID)).Bytes()
	if err != nil {
		return rc, false
	}
	if json.Unmarshal(raw, &rc) != nil {
		return rc, false
	}
	return rc, true
}

// Set populates the cache, best effort.
func (c *RateCardCache) Set(ctx context.Context, deviceID uuid.UUID, rc billing.RateCard) {
	if c == nil || c.rdb == nil {
		return
	}
	if b, err := json.Marshal(rc); err == nil {
		_ = c.rdb.Set(ctx, rateCardKey(deviceID), b, c.ttl).Err()
	}
}

// Invalidate drops the card after a rate change.
func (c *RateCardCache) Invalidate(ctx context.Context, deviceID uuid.UUID) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, rateCardKey(deviceID)).Err()
}
