package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tvnz/video-generator/internal/utils/metrics"
)

// Metrics records request count and latency per route template.
// Every 413 response is also counted as an oversized upload.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		m.RecordHTTPRequest(c.Request.Method, path, status, time.Since(start))
		if status == http.StatusRequestEntityTooLarge {
			m.RecordUpload(metrics.UploadTooLarge, 0)
		}
	}
}
