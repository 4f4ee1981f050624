// Package vectorutils provides helpers for constructing vector indexes
// from configuration.
package vectorutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/vector"
	"github.com/foliodocs/folio/pkg/vector/chroma"
	"github.com/foliodocs/folio/pkg/vector/memory"
	"github.com/foliodocs/folio/pkg/vector/sqlitevec"
)

// NewVectorIndexOpts holds the options for constructing a vector index.
type NewVectorIndexOpts struct {
	// ProviderType selects the backing store: "memory", "chroma" or "sqlitevec".
	ProviderType string

	// TargetURL is the server URL for network-backed providers (chroma),
	// or the database path for sqlitevec.
	TargetURL string

	// Dimensions is the embedding width, required by sqlitevec.
	Dimensions uint
}

// NewVectorIndex constructs a vector index for the configured provider.
func NewVectorIndex(opts NewVectorIndexOpts, logger *zap.Logger) (vector.Index, error) {
	switch opts.ProviderType {
	case "", "memory":
		return memory.NewIndex(), nil
	case "chroma":
		return chroma.NewDriver(chroma.Config{
			URL: opts.TargetURL,
		}, logger)
	case "sqlitevec":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     opts.TargetURL,
			Dimensions: opts.Dimensions,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown vector store provider: %s", opts.ProviderType)
	}
}
