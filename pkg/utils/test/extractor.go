package testutils

import (
	"fmt"

	"github.com/foliodocs/folio/pkg/chunker"
)

// MockExtractor is a test page extractor that returns canned pages instead
// of parsing PDF bytes.
type MockExtractor struct {
	Pages []chunker.Page

	FailExtract bool
}

func NewMockExtractor(pages ...chunker.Page) *MockExtractor {
	return &MockExtractor{Pages: pages}
}

func (m *MockExtractor) ExtractPages(_ []byte) ([]chunker.Page, error) {
	if m.FailExtract {
		return nil, fmt.Errorf("mock extraction failure")
	}
	return m.Pages, nil
}

var _ chunker.PageExtractor = (*MockExtractor)(nil)
