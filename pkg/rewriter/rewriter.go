// Package rewriter provides the optional LLM text-cleaning pass applied to
// retrieved chunk content before it is shown to a user. Rewriting is a
// display concern only; stored chunks are never modified.
package rewriter

import "context"

// Rewriter cleans up residual PDF extraction artifacts in a piece of text.
type Rewriter interface {
	// Rewrite returns a cleaned version of text. Blank input must come
	// back unchanged.
	Rewrite(ctx context.Context, text string) (string, error)

	// Close releases any resources held by the rewriter.
	Close() error
}

// Nop is a passthrough Rewriter, the default when no cleanup model is
// configured.
type Nop struct{}

// NewNop creates a passthrough rewriter.
func NewNop() *Nop {
	return &Nop{}
}

// Rewrite returns text unchanged.
func (n *Nop) Rewrite(_ context.Context, text string) (string, error) {
	return text, nil
}

// Close is a no-op.
func (n *Nop) Close() error {
	return nil
}

var _ Rewriter = (*Nop)(nil)
