package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"playzone/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimiter is a fixed-window per-IP limiter kept in Redis, so every API
// replica shares the same counters. When Redis cannot be reached the request
// is let through.
func RateLimiter(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 200*time.Millisecond)
		defer cancel()

		slot := time.Now().UnixNano() / int64(window)
		key := "ratelimit:" + c.ClientIP() + ":" + strconv.FormatInt(slot, 10)

		var incr *redis.IntCmd
		_, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			incr = p.Incr(ctx, key)
			p.Expire(ctx, key, window)
			return nil
		})
		if err != nil {
			log.Warn().Err(err).Msg("rate limiter: redis unavailable, allowing request")
			c.Next()
			return
		}

		if incr.Val() > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.WithCode("rate_limited", "too many requests, try again shortly"))
			return
		}
		c.Next()
	}
}
