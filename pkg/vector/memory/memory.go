// Package memory provides an in-memory vector index using brute-force
// cosine distance. It backs tests and the zero-dependency default of the
// serve command; nothing persists across restarts.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/foliodocs/folio/pkg/vector"
)

// Index implements vector.Index in process memory.
type Index struct {
	mu      sync.RWMutex
	records map[string]vector.Record
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{
		records: make(map[string]vector.Record),
	}
}

// Add stores records, upserting by ID.
func (i *Index) Add(_ context.Context, recs []vector.Record) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, rec := range recs {
		i.records[rec.ID] = rec
	}
	return nil
}

// GetBySource returns all records whose metadata source matches.
func (i *Index) GetBySource(_ context.Context, source string) ([]vector.Record, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var out []vector.Record
	for _, rec := range i.records {
		if rec.Metadata.Source == source {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Delete removes records by ID. Unknown IDs are ignored.
func (i *Index) Delete(_ context.Context, ids []string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, id := range ids {
		delete(i.records, id)
	}
	return nil
}

// Count returns the number of stored records.
func (i *Index) Count(_ context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.records), nil
}

// Query ranks all records by cosine distance to the embedding, closest
// first, and returns at most topK of them.
func (i *Index) Query(_ context.Context, embedding []float32, topK int) ([]vector.QueryHit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if topK < 1 {
		topK = 1
	}

	hits := make([]vector.QueryHit, 0, len(i.records))
	for _, rec := range i.records {
		dist := cosineDistance(embedding, rec.Embedding)
		hits = append(hits, vector.QueryHit{
			Record:   rec,
			Distance: dist,
			Score:    vector.Score(dist),
		})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Distance != hits[b].Distance {
			return hits[a].Distance < hits[b].Distance
		}
		// Stable order for equal distances.
		return hits[a].ID < hits[b].ID
	})

	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// Reset removes every record.
func (i *Index) Reset(_ context.Context) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := len(i.records)
	i.records = make(map[string]vector.Record)
	return n, nil
}

// Close is a no-op.
func (i *Index) Close() error {
	return nil
}

// cosineDistance is 1 minus cosine similarity, in [0, 2]. Degenerate
// zero-norm vectors get the maximum distance rather than NaN.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for j := 0; j < n; j++ {
		dot += float64(a[j]) * float64(b[j])
		normA += float64(a[j]) * float64(a[j])
		normB += float64(b[j]) * float64(b[j])
	}

	if normA == 0 || normB == 0 {
		return 2
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return 1 - sim
}

// Ensure Index implements vector.Index
var _ vector.Index = (*Index)(nil)
