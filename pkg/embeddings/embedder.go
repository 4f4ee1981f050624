// Package embeddings
package embeddings

import "context"

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts a batch of texts into vector embeddings, one per
	// input, in input order. Implementations must fail on a partial
	// response rather than silently truncating the batch.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
