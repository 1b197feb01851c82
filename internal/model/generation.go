package model

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// DefaultPromptText is sent when the client supplies no prompt.
const DefaultPromptText = "Generate a creative video from this image"

// GenerationParameters are the fixed generation settings sent with every job.
type GenerationParameters struct {
	Model         string
	Ratio         string
	Duration      int
	DefaultPrompt string
}

// DefaultGenerationParameters returns the settings used by the upstream integration.
func DefaultGenerationParameters() GenerationParameters {
	return GenerationParameters{
		Model:         "gen4_turbo",
		Ratio:         "1280:720",
		Duration:      5,
		DefaultPrompt: DefaultPromptText,
	}
}

// GenerationRequest is the body of one image-to-video submission.
type GenerationRequest struct {
	PromptImage string `json:"promptImage"`
	PromptText  string `json:"promptText"`
	Model       string `json:"model"`
	Ratio       string `json:"ratio"`
	Duration    int    `json:"duration"`
}

// NewGenerationRequest builds a submission from an encoded image and an optional
// prompt. A prompt that is absent falls back to the default prompt; a
// prompt that is present but blank is sent as given.
func NewGenerationRequest(imageDataURL string, promptText *string, params GenerationParameters) *GenerationRequest {
	prompt := params.DefaultPrompt
	if prompt == "" {
		prompt = DefaultPromptText
	}
	if promptText != nil {
		prompt = *promptText
	}

	return &GenerationRequest{
		PromptImage: imageDataURL,
		PromptText:  prompt,
		Model:       params.Model,
		Ratio:       params.Ratio,
		Duration:    params.Duration,
	}
}

// UpstreamResponse is a raw response from the generation API.
type UpstreamResponse struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the upstream answered with 200.
func (r *UpstreamResponse) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Text returns the raw body as text.
func (r *UpstreamResponse) Text() string {
	return string(r.Body)
}

// UploadedImage is an image received from a client for a single request.
type UploadedImage struct {
	// Filename is the name declared by the client.
	Filename string
	// Extension is the lower-cased extension of Filename.
	Extension string
	// MIMEType is derived from Extension.
	MIMEType string
	// Size is the declared byte size of the upload.
	Size int64
	// DetectedType is the sniffed content type, for diagnostics only.
	DetectedType string
}

// DataURL encodes data as a base64 data URL with the given MIME type.
func DataURL(mime string, data []byte) string {
	const sep = ";base64,"

	var b strings.Builder
	b.Grow(len("data:") + len(mime) + len(sep) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mime)
	b.WriteString(sep)
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}
