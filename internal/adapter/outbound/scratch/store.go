package scratch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/tvnz/video-generator/internal/domain/generation"
	"github.com/tvnz/video-generator/internal/port/outbound"
)

// fallbackName is used when sanitizing leaves nothing of the client's filename.
const fallbackName = "upload"

// Store keeps uploaded images on a filesystem for the duration of one request.
type Store struct {
	fs    afero.Fs
	dir   string
	newID func() string
}

// New creates a scratch store rooted at dir on fs.
func New(fs afero.Fs, dir string) *Store {
	return &Store{
		fs:    fs,
		dir:   filepath.Clean(dir),
		newID: func() string { return uuid.New().String() },
	}
}

// NewOS creates a scratch store on the host filesystem.
func NewOS(dir string) *Store {
	return New(afero.NewOsFs(), dir)
}

// Dir returns the scratch directory.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the scratch directory if it does not exist.
func (s *Store) EnsureDir() error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	return nil
}

// Name returns the scratch name for filename: a unique token, an underscore,
// and the sanitized filename.
func (s *Store) Name(filename string) string {
	safe := generation.SanitizeFilename(filename)
	if safe == "" {
		safe = fallbackName
	}
	return s.newID() + "_" + safe
}

// Save writes src to a new file in the scratch directory.
func (s *Store) Save(ctx context.Context, filename string, src io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The directory may have been removed since startup, e.g. a cleaned /tmp.
	if err := s.EnsureDir(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, s.Name(filename))
	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}

	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(path)
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(path)
		return "", fmt.Errorf("close scratch file: %w", err)
	}

	return path, nil
}

// Read returns the contents of a file previously returned by Save.
func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	if err := s.contains(path); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read scratch file: %w", err)
	}
	return data, nil
}

// Remove deletes a file previously returned by Save.
func (s *Store) Remove(ctx context.Context, path string) error {
	if err := s.contains(path); err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil {
		return fmt.Errorf("remove scratch file: %w", err)
	}
	return nil
}

func (s *Store) contains(path string) error {
	rel, err := filepath.Rel(s.dir, filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator) {
		return fmt.Errorf("path %q is outside the scratch dir", path)
	}
	return nil
}

// Compile-time interface check
var _ outbound.ScratchStorePort = (*Store)(nil)
