package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-portal/internal/shared/metrics"
	"resume-portal/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		resumeID, _ := c.Get("resumeId")
		downloadResult := ""
		if raw, ok := c.Get("downloadResult"); ok {
			if s, ok := raw.(string); ok {
				downloadResult = s
			}
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		telemetry.Info("request.complete", map[string]any{
			"request_id":      reqID,
			"method":          c.Request.Method,
			"path":            c.Request.URL.Path,
			"route":           route,
			"status":          status,
			"duration_ms":     float64(latency.Microseconds()) / 1000.0,
			"user_id":         UserIDFromContext(c),
			"session_id":      SessionIDFromContext(c),
			"authenticated":   IsAuthenticated(c),
			"resume_id":       resumeID,
			"download_result": downloadResult,
			"client_ip":       c.ClientIP(),
			"user_agent":      c.Request.UserAgent(),
		})
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(latency.Seconds())
	}
}
