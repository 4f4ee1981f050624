package testutils

import (
	"context"
	"fmt"

	"github.com/foliodocs/folio/pkg/eventstream"
)

// MockPublisher is a test event publisher that records every event.
type MockPublisher struct {
	Ingested []eventstream.DocumentIngestedEvent
	Deleted  []eventstream.DocumentDeletedEvent

	FailPublish bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishIngested(_ context.Context, event eventstream.DocumentIngestedEvent) error {
	if m.FailPublish {
		return fmt.Errorf("mock publish failure")
	}
	m.Ingested = append(m.Ingested, event)
	return nil
}

func (m *MockPublisher) PublishDeleted(_ context.Context, event eventstream.DocumentDeletedEvent) error {
	if m.FailPublish {
		return fmt.Errorf("mock publish failure")
	}
	m.Deleted = append(m.Deleted, event)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*MockPublisher)(nil)
