package generation

import (
	"errors"

	apperrors "github.com/tvnz/video-generator/internal/utils/errors"
)

// ErrUnknownExtension is returned when an extension has no MIME mapping.
var ErrUnknownExtension = errors.New("extension has no MIME mapping")

// TokenNotConfigured returns the error reported when no API token is set.
func TokenNotConfigured() *apperrors.AppError {
	return apperrors.ConfigurationError(
		"Runway API token not configured",
		"Please set RUNWAY_API_TOKEN environment variable",
	)
}
