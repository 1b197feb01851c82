package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for each failure class the gateway reports.
var (
	ErrMissingInput         = errors.New("missing input")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrConfiguration        = errors.New("configuration error")
	ErrUpstream             = errors.New("upstream error")
	ErrTimeout              = errors.New("timeout")
	ErrServiceUnavail       = errors.New("service unavailable")
	ErrInternal             = errors.New("internal error")
)

// AppError represents an application error with HTTP status and error code.
//
// Message is the short text placed in the "error" field of the response
// envelope. Hint and Details populate the optional "message" and "details"
// fields.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Hint       string `json:"hint,omitempty"`
	Details    any    `json:"details,omitempty"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil && !isSentinel(e.Err) {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Err, target)
}

// WithDetails attaches details to the error.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// ErrorResponse is the JSON envelope returned to clients.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// ToResponse converts an AppError to ErrorResponse.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Message: e.Hint,
		Details: e.Details,
	}
}

// NewAppError creates a new application error.
func NewAppError(code string, message string, statusCode int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// MissingInput creates an error for an absent file field or empty filename.
func MissingInput(message string) *AppError {
	return NewAppError("MISSING_INPUT", message, http.StatusBadRequest, ErrMissingInput)
}

// UnsupportedMediaType creates an error for a disallowed file extension.
func UnsupportedMediaType(message string) *AppError {
	if message == "" {
		message = "Invalid file type"
	}
	return NewAppError("UNSUPPORTED_MEDIA_TYPE", message, http.StatusBadRequest, ErrUnsupportedMediaType)
}

// PayloadTooLarge creates an error for a request body over the upload limit.
func PayloadTooLarge(message, hint string) *AppError {
	if message == "" {
		message = "File too large"
	}
	return &AppError{
		Code:       "PAYLOAD_TOO_LARGE",
		Message:    message,
		Hint:       hint,
		StatusCode: http.StatusRequestEntityTooLarge,
		Err:        ErrPayloadTooLarge,
	}
}

// ConfigurationError creates an error for a missing server-side setting.
func ConfigurationError(message, hint string) *AppError {
	return &AppError{
		Code:       "CONFIGURATION_ERROR",
		Message:    message,
		Hint:       hint,
		StatusCode: http.StatusInternalServerError,
		Err:        ErrConfiguration,
	}
}

// Upstream creates an error mirroring a non-success upstream response.
// The gateway answers with the upstream's own status code.
func Upstream(statusCode int, body string) *AppError {
	return &AppError{
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("API request failed with status %d", statusCode),
		Details:    body,
		StatusCode: statusCode,
		Err:        ErrUpstream,
	}
}

// Timeout creates a timeout error.
func Timeout(message string) *AppError {
	if message == "" {
		message = "request timeout"
	}
	return NewAppError("UPSTREAM_TIMEOUT", message, http.StatusGatewayTimeout, ErrTimeout)
}

// ServiceUnavailable creates a service unavailable error.
func ServiceUnavailable(message string) *AppError {
	if message == "" {
		message = "service temporarily unavailable"
	}
	return NewAppError("SERVICE_UNAVAILABLE", message, http.StatusServiceUnavailable, ErrServiceUnavail)
}

// Internal creates an internal error. The message is exposed to clients.
func Internal(message string, err error) *AppError {
	return NewAppError("INTERNAL_ERROR", message, http.StatusInternalServerError, err)
}

// GetStatusCode returns the appropriate HTTP status code for an error.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrMissingInput), errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusBadRequest
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ResponseFor builds the status code and envelope for any error.
// Errors that are not AppErrors expose their message directly.
func ResponseFor(err error) (int, ErrorResponse) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode, appErr.ToResponse()
	}
	return GetStatusCode(err), ErrorResponse{Error: err.Error()}
}

// --- Error Checking Helpers ---

// IsMissingInput checks if the error is a missing input error.
func IsMissingInput(err error) bool {
	return errors.Is(err, ErrMissingInput)
}

// IsUnsupportedMediaType checks if the error is an unsupported media type error.
func IsUnsupportedMediaType(err error) bool {
	return errors.Is(err, ErrUnsupportedMediaType)
}

// IsConfiguration checks if the error is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsUpstream checks if the error mirrors an upstream failure response.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

// IsTimeout checks if the error is a timeout error.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func isSentinel(err error) bool {
	switch err {
	case ErrMissingInput, ErrUnsupportedMediaType, ErrPayloadTooLarge, ErrConfiguration,
		ErrUpstream, ErrTimeout, ErrServiceUnavail, ErrInternal:
		return true
	}
	return false
}
