package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/tvnz/video-generator/internal/utils/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		expected string
	}{
		{
			name:     "missing input",
			err:      apperrors.MissingInput("No file selected"),
			status:   http.StatusBadRequest,
			expected: `{"error":"No file selected"}`,
		},
		{
			name:     "configuration",
			err:      apperrors.ConfigurationError("Runway API token not configured", "Please set RUNWAY_API_TOKEN environment variable"),
			status:   http.StatusInternalServerError,
			expected: `{"error":"Runway API token not configured","message":"Please set RUNWAY_API_TOKEN environment variable"}`,
		},
		{
			name:     "upstream",
			err:      apperrors.Upstream(http.StatusTooManyRequests, "slow down"),
			status:   http.StatusTooManyRequests,
			expected: `{"error":"API request failed with status 429","details":"slow down"}`,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			status:   http.StatusInternalServerError,
			expected: `{"error":"boom"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Error(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.expected, w.Body.String())
			assert.True(t, c.IsAborted())
			assert.Len(t, c.Errors, 1)
		})
	}
}

func TestRawJSON(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RawJSON(c, http.StatusOK, []byte(`{"id":"t1", "status":"PENDING"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `{"id":"t1", "status":"PENDING"}`, w.Body.String())
}
