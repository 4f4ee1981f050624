// Package eventstream publishes document lifecycle events so downstream
// consumers (audit, cache invalidation, sync jobs) can react to changes in
// the document corpus. Publishing is best-effort: a broker outage must never
// fail the ingestion or deletion that triggered the event.
package eventstream

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion identifies the event payload shape for consumers.
const SchemaVersion = 1

// Event types emitted on the stream.
const (
	EventTypeDocumentIngested = "folio.document.ingested"
	EventTypeDocumentDeleted  = "folio.document.deleted"
)

// Envelope is the common header on every published event.
type Envelope struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	EmittedAt     time.Time `json:"emitted_at"`
}

// DocumentIngestedEvent is emitted after a document's chunks are indexed.
type DocumentIngestedEvent struct {
	Envelope

	Filename   string `json:"filename"`
	SourcePath string `json:"source_path"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
}

// DocumentDeletedEvent is emitted after a document's chunks are removed.
type DocumentDeletedEvent struct {
	Envelope

	Filename      string `json:"filename"`
	SourcePath    string `json:"source_path"`
	ChunksDeleted int    `json:"chunks_deleted"`
	FileDeleted   bool   `json:"file_deleted"`
}

// NewEnvelope stamps a fresh envelope for the given event type.
func NewEnvelope(eventType string) Envelope {
	return Envelope{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EmittedAt:     time.Now().UTC(),
	}
}

// Publisher emits document lifecycle events.
type Publisher interface {
	// PublishIngested emits a document-ingested event.
	PublishIngested(ctx context.Context, event DocumentIngestedEvent) error

	// PublishDeleted emits a document-deleted event.
	PublishDeleted(ctx context.Context, event DocumentDeletedEvent) error

	// Close flushes and releases the publisher.
	Close() error
}
