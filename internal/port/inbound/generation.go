package inbound

import (
	"context"
	"io"
)

// UploadInput describes the image part of a submission.
type UploadInput struct {
	// Filename is the name declared by the client, possibly empty.
	Filename string
	// Size is the declared size in bytes.
	Size int64
	// Open returns the upload content.
	Open func() (io.ReadCloser, error)
}

// GenerationDomain defines the gateway operations.
type GenerationDomain interface {
	// SubmitImage validates an upload, sends it to the generation API and
	// returns the upstream JSON. A nil upload means the image field was absent.
	// A nil promptText means the prompt field was absent.
	SubmitImage(ctx context.Context, upload *UploadInput, promptText *string) ([]byte, error)

	// CheckStatus returns the upstream JSON for a task.
	CheckStatus(ctx context.Context, taskID string) ([]byte, error)
}
