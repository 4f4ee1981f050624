package testutils

import (
	"context"
	"fmt"

	"github.com/foliodocs/folio/pkg/rewriter"
)

// MockRewriter is a test rewriter that prefixes text so callers can tell
// rewritten output from stored text.
type MockRewriter struct {
	Prefix string

	FailRewrite bool
}

func NewMockRewriter(prefix string) *MockRewriter {
	return &MockRewriter{Prefix: prefix}
}

func (m *MockRewriter) Rewrite(_ context.Context, text string) (string, error) {
	if m.FailRewrite {
		return "", fmt.Errorf("mock rewrite failure")
	}
	return m.Prefix + text, nil
}

func (m *MockRewriter) Close() error {
	return nil
}

var _ rewriter.Rewriter = (*MockRewriter)(nil)
