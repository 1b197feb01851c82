package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/tvnz/video-generator/internal/utils/errors"
)

// BodyLimit rejects requests whose body exceeds maxBytes.
//
// Requests that declare an oversized Content-Length are refused up front.
// Otherwise the body is wrapped in http.MaxBytesReader and handlers see an
// *http.MaxBytesError once they read past the limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			AbortPayloadTooLarge(c, maxBytes)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// AbortPayloadTooLarge writes the 413 envelope and aborts the chain.
func AbortPayloadTooLarge(c *gin.Context, maxBytes int64) {
	err := apperrors.PayloadTooLarge("", "Maximum upload size is "+FormatBytes(maxBytes))
	c.AbortWithStatusJSON(err.StatusCode, err.ToResponse())
}

// FormatBytes renders a byte count in binary units, e.g. "16 MiB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && m%unit == 0; m /= unit {
		div *= unit
		exp++
	}
	if n%div == 0 {
		return fmt.Sprintf("%d %ciB", n/div, "KMGTPE"[exp])
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
