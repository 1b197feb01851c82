package outbound

import (
	"context"
	"io"
)

// ScratchStorePort defines short-lived file storage for uploads being processed.
type ScratchStorePort interface {
	// Save writes src under a unique name derived from filename and returns its path.
	Save(ctx context.Context, filename string, src io.Reader) (string, error)

	// Read returns the contents of a saved file.
	Read(ctx context.Context, path string) ([]byte, error)

	// Remove deletes a saved file.
	Remove(ctx context.Context, path string) error
}
