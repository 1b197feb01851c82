package response

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/tvnz/video-generator/internal/utils/errors"
)

// Error writes the JSON envelope for err and aborts the handler chain.
func Error(c *gin.Context, err error) {
	status, body := apperrors.ResponseFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// RawJSON writes an already-encoded JSON document unchanged.
func RawJSON(c *gin.Context, status int, body []byte) {
	c.Data(status, "application/json", body)
}
