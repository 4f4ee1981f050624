package vector

import "errors"

var (
	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the index backend cannot be reached.
	ErrConnection = errors.New("vector index connection failed")

	// ErrDimensionMismatch is returned when an embedding's width does not
	// match the index's configured dimensions.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
