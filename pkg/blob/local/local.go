// Package local implements pkg/blob's Store on the local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/blob"
)

// Store writes blobs under a base directory, named by the normalized
// filename.
type Store struct {
	baseDir string
	logger  *zap.Logger
}

// NewStore creates a local blob store rooted at baseDir, creating the
// directory if needed.
func NewStore(baseDir string, logger *zap.Logger) (*Store, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("blob base directory is required")
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}

	return &Store{
		baseDir: baseDir,
		logger:  logger,
	}, nil
}

// Save writes the blob to disk and returns its canonical source path.
func (s *Store) Save(_ context.Context, data []byte, filename string) (string, error) {
	name := blob.NormalizeFilename(filename)
	if err := os.WriteFile(filepath.Join(s.baseDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing blob %q: %w", name, err)
	}

	s.logger.Debug("saved blob",
		zap.String("filename", name),
		zap.Int("bytes", len(data)),
	)

	return blob.SourcePath(filename), nil
}

// Delete removes the blob for filename. Returns false when no blob exists.
func (s *Store) Delete(_ context.Context, filename string) (bool, error) {
	name := blob.NormalizeFilename(filename)
	err := os.Remove(filepath.Join(s.baseDir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("removing blob %q: %w", name, err)
	}

	s.logger.Debug("deleted blob", zap.String("filename", name))
	return true, nil
}

// Ensure Store implements blob.Store
var _ blob.Store = (*Store)(nil)
