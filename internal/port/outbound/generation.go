package outbound

import (
	"context"

	"github.com/tvnz/video-generator/internal/model"
)

// GenerationAPIPort defines the upstream image-to-video API.
type GenerationAPIPort interface {
	// Configured reports whether a credential is available for the API.
	Configured() bool

	// SubmitImageToVideo creates a generation task.
	SubmitImageToVideo(ctx context.Context, req *model.GenerationRequest) (*model.UpstreamResponse, error)

	// GetTask fetches the current state of a task.
	GetTask(ctx context.Context, taskID string) (*model.UpstreamResponse, error)
}
