package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SourceHealth is satisfied by *infra.SourceDB.
type SourceHealth interface {
	Configured() bool
	BreakerState() string
}

// Health checks DB and Redis connectivity and reports the external source
// breaker state. The source never makes the service unhealthy: it is only
// needed by the sync job.
func Health(db *gorm.DB, rdb *redis.Client, source SourceHealth) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb == nil {
			redisStatus = "disabled"
		} else if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		sourceStatus := "not_configured"
		if source != nil && source.Configured() {
			sourceStatus = source.BreakerState()
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":     status == http.StatusOK,
			"db":     dbStatus,
			"redis":  redisStatus,
			"source": sourceStatus,
		})
	}
}
