package pipeline

import "errors"

var (
	// ErrEmbeddingCount is returned when the embedder responds with a
	// different number of vectors than chunks sent. A partial batch must
	// never be indexed.
	ErrEmbeddingCount = errors.New("embedding count does not match chunk count")
)
