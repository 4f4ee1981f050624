// Package blob stores uploaded PDF files and owns the one normalization rule
// that derives a document's source path from its filename. The source path
// is the join key between a document's blob and its vector records: upload
// and delete must derive it identically, so the derivation lives here and
// nowhere else.
package blob

import (
	"context"
	"path"
	"strings"
)

// UploadRoot is the public path prefix stored PDFs are served under. Source
// paths embed it, so changing it orphans every previously indexed document.
const UploadRoot = "/static/documents"

// Store persists document blobs keyed by their original filename.
type Store interface {
	// Save writes the blob and returns its source path.
	Save(ctx context.Context, data []byte, filename string) (string, error)

	// Delete removes the blob for filename. A missing blob returns false,
	// not an error.
	Delete(ctx context.Context, filename string) (bool, error)
}

// NormalizeFilename maps an uploaded filename onto its on-disk name:
// lowercase, spaces replaced with underscores, directory components
// stripped.
func NormalizeFilename(filename string) string {
	safe := strings.ToLower(strings.ReplaceAll(filename, " ", "_"))
	return path.Base(safe)
}

// SourcePath derives the canonical source path for a filename. Every
// component that writes or looks up vector records by source must go
// through this function; a second derivation anywhere else will silently
// orphan records or break deletion.
func SourcePath(filename string) string {
	return UploadRoot + "/" + NormalizeFilename(filename)
}
