package testutils

import (
	"context"
	"fmt"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	Embeddings map[string][]float32

	// FailOn causes Embed to return an error when any input text matches
	FailOn string

	// ShortBatch causes Embed to return one fewer embedding than inputs
	ShortBatch bool
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
	}
}

func (m *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if m.FailOn != "" && text == m.FailOn {
			return nil, fmt.Errorf("mock embedding failure for: %s", text)
		}

		if emb, ok := m.Embeddings[text]; ok {
			out = append(out, emb)
			continue
		}

		// Return a default embedding for any text
		out = append(out, []float32{0.1, 0.2, 0.3})
	}

	if m.ShortBatch && len(out) > 0 {
		out = out[:len(out)-1]
	}

	return out, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}
