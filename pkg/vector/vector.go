// Package vector provides the similarity-index abstraction chunks are stored
// in, plus the typed records exchanged across that boundary. Backing stores
// return loosely-shaped data (Chroma's nested lists, SQL rows); drivers
// normalize it into Record and QueryHit here, once, instead of at every call
// site.
package vector

import "context"

// Metadata is the per-chunk metadata carried alongside content and embedding.
// Source is the normalized storage path of the owning document and is the
// join key used for deletion: it must be derived by blob.SourcePath at upload
// time and at delete time alike.
type Metadata struct {
	// Source is the normalized storage path of the owning document.
	Source string `json:"source"`

	// Filename is the original uploaded filename.
	Filename string `json:"filename"`

	// PageNumber is the 1-based physical PDF page the chunk came from.
	PageNumber int `json:"page_number"`

	// ChunkIndex is the chunk's 0-based position within its paragraph.
	ChunkIndex int `json:"chunk_index"`

	// TotalChunks is the number of chunks its paragraph produced.
	TotalChunks int `json:"total_chunks"`
}

// Complete reports whether the fields retrieval depends on are populated.
// Records written by older ingesters can be missing metadata; retrieval
// drops those rather than failing the whole query.
func (m Metadata) Complete() bool {
	return m.Source != "" && m.Filename != "" && m.PageNumber > 0
}

// Record is a stored chunk: id, embedding, content, and metadata. Records are
// immutable once added; an update is modeled as delete plus add.
type Record struct {
	// ID is the content-addressed chunk identifier (docid.DeriveID).
	ID string

	// Embedding is the vector representation of Content.
	Embedding []float32

	// Content is the chunk text.
	Content string

	// Metadata locates the chunk within its source document.
	Metadata Metadata
}

// QueryHit is a search result with its raw distance and derived similarity
// score.
type QueryHit struct {
	Record

	// Distance is the store's raw distance, non-negative, ascending order
	// in query results (closest first).
	Distance float64

	// Score is the similarity derived from Distance via Score().
	Score float32
}

// Index handles storage and retrieval of embedded chunks.
type Index interface {
	// Add stores records, upserting by ID.
	Add(ctx context.Context, recs []Record) error

	// GetBySource retrieves all records whose metadata source equals the
	// given normalized source path.
	GetBySource(ctx context.Context, source string) ([]Record, error)

	// Delete removes records by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int, error)

	// Query finds the topK records most similar to the given embedding,
	// ranked ascending by distance. topK is clamped to what the store
	// holds; asking for more than exist returns all of them.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryHit, error)

	// Reset removes every record and returns how many were removed.
	Reset(ctx context.Context) (int, error)

	// Close releases any resources held by the index.
	Close() error
}

// Score maps a non-negative distance onto (0, 1]: zero distance scores 1,
// larger distances approach 0. Monotonic, so ranking by ascending distance
// and by descending score agree.
func Score(distance float64) float32 {
	return float32(1.0 / (1.0 + distance))
}
