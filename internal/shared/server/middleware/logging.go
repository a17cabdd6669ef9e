package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"career-backend/internal/shared/telemetry"
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

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"bytes_out":   c.Writer.Size(),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if op := c.GetString("operation"); op != "" {
			fields["operation"] = op
		}
		if id := c.Writer.Header().Get("X-Material-Id"); id != "" {
			fields["material_id"] = id
		}
		telemetry.Info("request.complete", fields)
	}
}
