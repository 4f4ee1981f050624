package testutils

import (
	"context"
	"fmt"

	"github.com/foliodocs/folio/pkg/blob"
)

// MockBlobStore is a test blob store backed by a map keyed by normalized
// filename.
type MockBlobStore struct {
	Files map[string][]byte

	FailSave   bool
	FailDelete bool
}

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{
		Files: make(map[string][]byte),
	}
}

func (m *MockBlobStore) Save(_ context.Context, data []byte, filename string) (string, error) {
	if m.FailSave {
		return "", fmt.Errorf("mock save failure")
	}
	m.Files[blob.NormalizeFilename(filename)] = data
	return blob.SourcePath(filename), nil
}

func (m *MockBlobStore) Delete(_ context.Context, filename string) (bool, error) {
	if m.FailDelete {
		return false, fmt.Errorf("mock delete failure")
	}
	key := blob.NormalizeFilename(filename)
	if _, ok := m.Files[key]; !ok {
		return false, nil
	}
	delete(m.Files, key)
	return true, nil
}

var _ blob.Store = (*MockBlobStore)(nil)
