// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/foliodocs/folio/pkg/embeddings"
	"github.com/foliodocs/folio/pkg/embeddings/gemini"
	"github.com/foliodocs/folio/pkg/embeddings/ollama"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case "gemini":
		return gemini.NewEmbedder(gemini.EmbedderConfig{
			APIKey:  o.APIKey,
			Model:   o.Model,
			BaseURL: o.TargetURL,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
