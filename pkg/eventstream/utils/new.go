// Package eventstreamutils provides helpers for constructing event
// publishers from configuration.
package eventstreamutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/eventstream"
	"github.com/foliodocs/folio/pkg/eventstream/kafka"
	"github.com/foliodocs/folio/pkg/eventstream/nop"
)

// NewPublisherOpts holds the options for constructing an event publisher.
type NewPublisherOpts struct {
	// ProviderType selects the backend: "nop" or "kafka".
	ProviderType string

	// Brokers is the broker address list for kafka.
	Brokers []string

	// Topic is the topic for kafka.
	Topic string
}

// NewPublisher constructs a publisher for the configured provider.
func NewPublisher(opts NewPublisherOpts, logger *zap.Logger) (eventstream.Publisher, error) {
	switch opts.ProviderType {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		return kafka.NewPublisher(kafka.Config{
			Brokers: opts.Brokers,
			Topic:   opts.Topic,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown event stream provider: %s", opts.ProviderType)
	}
}
