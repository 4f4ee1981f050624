// Package nop provides a Publisher that discards every event, for
// deployments without a broker.
package nop

import (
	"context"

	"github.com/foliodocs/folio/pkg/eventstream"
)

// Publisher discards all events.
type Publisher struct{}

// NewPublisher creates a no-op publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishIngested discards the event.
func (p *Publisher) PublishIngested(_ context.Context, _ eventstream.DocumentIngestedEvent) error {
	return nil
}

// PublishDeleted discards the event.
func (p *Publisher) PublishDeleted(_ context.Context, _ eventstream.DocumentDeletedEvent) error {
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
