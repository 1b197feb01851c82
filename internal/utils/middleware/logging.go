package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tvnz/video-generator/internal/shared/logger"
)

// Logging returns a middleware that logs HTTP requests.
func Logging(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// Process request
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		attrs := []any{
			logger.Int("status", status),
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.Int64("latency_ms", latency.Milliseconds()),
			logger.String("client_ip", c.ClientIP()),
		}

		if query != "" {
			attrs = append(attrs, logger.String("query", query))
		}

		if userAgent := c.Request.UserAgent(); userAgent != "" {
			attrs = append(attrs, logger.String("user_agent", userAgent))
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, logger.String("errors", c.Errors.String()))
		}

		// Log based on status code
		reqLog := log.ForRequest(c.Request.Context())
		msg := "HTTP Request"
		switch {
		case status >= 500:
			reqLog.Error(msg, attrs...)
		case status >= 400:
			reqLog.Warn(msg, attrs...)
		default:
			reqLog.Info(msg, attrs...)
		}
	}
}
