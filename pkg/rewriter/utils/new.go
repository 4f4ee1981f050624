// Package rewriterutils is the rewriter utility package
package rewriterutils

import (
	"fmt"

	"github.com/foliodocs/folio/pkg/rewriter"
	"github.com/foliodocs/folio/pkg/rewriter/ollama"
)

type NewRewriterOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
}

func NewRewriter(o *NewRewriterOpts) (rewriter.Rewriter, error) {
	switch o.ProviderType {
	case "", "nop":
		return rewriter.NewNop(), nil
	case "ollama":
		return ollama.NewRewriter(ollama.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported rewriter provider: %s", o.ProviderType)
	}
}
