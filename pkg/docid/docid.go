// Package docid derives content-addressed chunk identifiers.
package docid

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// IDLength is the hex length chunk IDs are truncated to. Truncating the
// digest trades a negligible collision-risk increase for shorter keys in the
// index; 20 hex chars is 80 bits, far beyond realistic corpus sizes.
const IDLength = 20

// ErrEmptySource is returned when an ID is requested for an empty source
// path. An empty source would collapse every document into one identity
// namespace, so it is treated as a caller bug rather than hashed quietly.
var ErrEmptySource = errors.New("source path is empty")

// DeriveID returns the deterministic chunk ID for a (source, page, chunk)
// triple. The same triple always yields the same ID, which makes
// re-ingestion of an unchanged document an upsert instead of a duplicate.
func DeriveID(source string, pageNumber, chunkIndex int) (string, error) {
	if source == "" {
		return "", ErrEmptySource
	}

	sum := sha256.Sum256(fmt.Appendf(nil, "%s_%d_%d", source, pageNumber, chunkIndex))
	return hex.EncodeToString(sum[:])[:IDLength], nil
}
