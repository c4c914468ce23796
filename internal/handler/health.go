package handler

import (
	"context"
	"net/http"
	"time"

	"playzone/internal/infra"
	"playzone/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports database and Redis connectivity. Redis only backs the
// lock, the rate cache and the job queue, so its loss is reported as
// degraded rather than down. The SMTP breaker state and the dead letter
// counts are informational.
func Health(db *gorm.DB, rdb *redis.Client, smtp *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		if db == nil {
			dbStatus = "error"
		} else if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb == nil || rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		status, state := http.StatusOK, "ok"
		switch {
		case dbStatus != "connected":
			status, state = http.StatusServiceUnavailable, "down"
		case redisStatus != "connected":
			state = "degraded"
		}

		body := gin.H{
			"status": state,
			"db":     dbStatus,
			"redis":  redisStatus,
			"smtp":   smtp.State().String(),
		}
		if redisStatus == "connected" {
			if depths, err := worker.DLQDepths(ctx, rdb); err == nil {
				body["dead_letters"] = depths
			}
		}
		c.JSON(status, body)
	}
}
