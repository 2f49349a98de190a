package middleware

import (
	"log/slog"
	"time"

	"github.com/finance-ledger/internal/logger"
	"github.com/gin-gonic/gin"
)

// Logger writes one access line per request, at ERROR for 5xx and WARN for 4xx, so a
// rejected transfer shows up next to the engine's own log lines for the same correlation id.
// It must run after CorrelationID.
func Logger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}

		attrs := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if key := c.GetHeader("Idempotency-Key"); key != "" {
			attrs = append(attrs, "idempotency_key", key)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		logger.FromContext(c.Request.Context(), base).Log(c.Request.Context(), level, "HTTP request", attrs...)
	}
}
