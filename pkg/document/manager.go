// Package document coordinates whole-document operations that span the
// vector index and blob storage, most importantly verified deletion.
package document

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/blob"
	"github.com/foliodocs/folio/pkg/vector"
)

// Manager deletes documents atomically across the index and blob store.
type Manager struct {
	index  vector.Index
	blobs  blob.Store
	logger *zap.Logger
}

// NewManager creates a Manager.
func NewManager(index vector.Index, blobs blob.Store, logger *zap.Logger) *Manager {
	return &Manager{
		index:  index,
		blobs:  blobs,
		logger: logger,
	}
}

// DeleteResult describes a completed document deletion.
type DeleteResult struct {
	// Filename is the original filename the deletion was requested for.
	Filename string `json:"filename"`

	// SourcePath is the canonical source path the chunks were stored under.
	SourcePath string `json:"source_path"`

	// ChunksDeleted is how many chunks were removed from the index.
	ChunksDeleted int `json:"chunks_deleted"`

	// FileDeleted reports whether the stored blob was removed too.
	FileDeleted bool `json:"file_deleted"`
}

// DeleteDocument removes every indexed chunk for filename, verifies the
// index no longer holds any, then removes the stored blob. Verification
// failure keeps the blob in place and returns ErrVerification. A missing
// blob after a successful index deletion is logged, not an error: the index
// is the source of truth for what exists.
func (m *Manager) DeleteDocument(ctx context.Context, filename string) (*DeleteResult, error) {
	source := blob.SourcePath(filename)

	recs, err := m.index.GetBySource(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("looking up chunks for %s: %w", source, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}

	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}

	if err := m.index.Delete(ctx, ids); err != nil {
		return nil, fmt.Errorf("deleting chunks for %s: %w", source, err)
	}

	// Re-query before touching the blob. If any chunk survived, deleting
	// the file would leave dangling records pointing at nothing.
	remaining, err := m.index.GetBySource(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("verifying deletion for %s: %w", source, err)
	}
	if len(remaining) > 0 {
		return nil, fmt.Errorf("%w: %d of %d chunks remain for %s",
			ErrVerification, len(remaining), len(ids), source)
	}

	fileDeleted, err := m.blobs.Delete(ctx, filename)
	if err != nil {
		// The index deletion already succeeded, so report success and
		// leave the orphaned blob for an operator to clean up.
		m.logger.Warn("failed to delete stored file",
			zap.String("filename", filename),
			zap.Error(err),
		)
		fileDeleted = false
	}

	m.logger.Info("deleted document",
		zap.String("filename", filename),
		zap.String("source", source),
		zap.Int("chunks_deleted", len(ids)),
		zap.Bool("file_deleted", fileDeleted),
	)

	return &DeleteResult{
		Filename:      filename,
		SourcePath:    source,
		ChunksDeleted: len(ids),
		FileDeleted:   fileDeleted,
	}, nil
}

// Count returns how many chunks the index holds.
func (m *Manager) Count(ctx context.Context) (int, error) {
	return m.index.Count(ctx)
}

// DeleteAll removes every chunk in the index and returns how many were
// removed. Stored blobs are left in place.
func (m *Manager) DeleteAll(ctx context.Context) (int, error) {
	deleted, err := m.index.Reset(ctx)
	if err != nil {
		return 0, fmt.Errorf("resetting index: %w", err)
	}

	m.logger.Info("deleted all documents", zap.Int("chunks_deleted", deleted))
	return deleted, nil
}
