package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resume-portal/internal/shared/metrics"
	"resume-portal/internal/shared/server/respond"
	"resume-portal/internal/shared/telemetry"
)

// RedisRateLimitConfig configures the shared fixed-window limiter.
type RedisRateLimitConfig struct {
	Client *redis.Client
	Rule   RateLimitRule
	Window time.Duration
	Prefix string
	Now    func() time.Time
}

// RedisRateLimit counts requests per principal in fixed windows stored in
// Redis so every API replica shares one budget. Each window admits
// floor(rate*windowSeconds)+burst requests. Without a client it falls back to
// the in-process limiter.
func RedisRateLimit(cfg RedisRateLimitConfig) gin.HandlerFunc {
	if cfg.Client == nil {
		return RateLimit(RateLimitConfig{
			Rules: map[string]RateLimitRule{defaultRateLimitGroup: cfg.Rule},
		})
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "rl"
	}
	windowSeconds := int64(cfg.Window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	allowedPerWindow := int64(cfg.Rule.Rate*float64(windowSeconds)) + int64(cfg.Rule.Burst)

	return func(c *gin.Context) {
		if cfg.Rule.Rate <= 0 && cfg.Rule.Burst <= 0 {
			c.Next()
			return
		}
		bucket := cfg.Now().Unix() / windowSeconds
		key := fmt.Sprintf("%s:%s:%d", cfg.Prefix, principalFor(c), bucket)

		ctx := c.Request.Context()
		count, err := cfg.Client.Incr(ctx, key).Result()
		if err != nil {
			telemetry.Error("rate_limit.redis_failed", map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      err.Error(),
			})
			respond.Error(c, 500, "internal_error", "Rate limit check failed", nil)
			return
		}
		if count == 1 {
			_ = cfg.Client.Expire(ctx, key, time.Duration(windowSeconds+1)*time.Second).Err()
		}
		if count > allowedPerWindow {
			metrics.RateLimitRejected.WithLabelValues(limiterRedis).Inc()
			rejectRateLimited(c, time.Duration(windowSeconds)*time.Second)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues(limiterRedis).Inc()
		c.Next()
	}
}
