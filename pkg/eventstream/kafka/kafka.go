// Package kafka publishes document lifecycle events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/eventstream"
)

// DefaultTopic is the topic document events are published to unless
// configured otherwise.
const DefaultTopic = "folio.documents"

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string

	// Topic is the topic events are written to. Defaults to DefaultTopic.
	Topic string
}

// Publisher writes document lifecycle events to Kafka. Events for the same
// document share a message key, so per-document ordering survives
// partitioning.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPublisher creates a Kafka-backed publisher.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(c.Brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	logger.Info("kafka event publisher initialized",
		zap.Strings("brokers", c.Brokers),
		zap.String("topic", topic),
	)

	return &Publisher{
		writer: writer,
		logger: logger,
	}, nil
}

// PublishIngested emits a document-ingested event keyed by source path.
func (p *Publisher) PublishIngested(ctx context.Context, event eventstream.DocumentIngestedEvent) error {
	return p.publish(ctx, event.SourcePath, event)
}

// PublishDeleted emits a document-deleted event keyed by source path.
func (p *Publisher) PublishDeleted(ctx context.Context, event eventstream.DocumentDeletedEvent) error {
	return p.publish(ctx, event.SourcePath, event)
}

func (p *Publisher) publish(ctx context.Context, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("writing event to kafka: %w", err)
	}

	p.logger.Debug("published event",
		zap.String("key", key),
	)

	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
