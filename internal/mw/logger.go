package mw

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Logger defines the logging interface used by RequestLogger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// RequestLogger logs one structured line per request. Server errors are
// logged at warn level.
func RequestLogger(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if status >= 500 {
			logger.Warn("http request", args...)
			return
		}
		logger.Info("http request", args...)
	}
}
