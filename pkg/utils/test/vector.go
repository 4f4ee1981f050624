package testutils

import (
	"context"
	"fmt"
	"sort"

	"github.com/foliodocs/folio/pkg/vector"
)

// MockIndex is a test vector index backed by a plain map, with switches to
// force failures on individual operations.
type MockIndex struct {
	Records map[string]vector.Record

	FailAdd    bool
	FailGet    bool
	FailDelete bool
	FailCount  bool
	FailQuery  bool
	FailReset  bool

	// SurviveDelete lists IDs that Delete silently leaves in place, for
	// exercising deletion verification.
	SurviveDelete []string
}

func NewMockIndex() *MockIndex {
	return &MockIndex{
		Records: make(map[string]vector.Record),
	}
}

func (m *MockIndex) Add(_ context.Context, recs []vector.Record) error {
	if m.FailAdd {
		return fmt.Errorf("mock add failure")
	}
	for _, rec := range recs {
		m.Records[rec.ID] = rec
	}
	return nil
}

func (m *MockIndex) GetBySource(_ context.Context, source string) ([]vector.Record, error) {
	if m.FailGet {
		return nil, fmt.Errorf("mock get failure")
	}
	var recs []vector.Record
	for _, rec := range m.Records {
		if rec.Metadata.Source == source {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs, nil
}

func (m *MockIndex) Delete(_ context.Context, ids []string) error {
	if m.FailDelete {
		return fmt.Errorf("mock delete failure")
	}
	survive := make(map[string]bool, len(m.SurviveDelete))
	for _, id := range m.SurviveDelete {
		survive[id] = true
	}
	for _, id := range ids {
		if survive[id] {
			continue
		}
		delete(m.Records, id)
	}
	return nil
}

func (m *MockIndex) Count(_ context.Context) (int, error) {
	if m.FailCount {
		return 0, fmt.Errorf("mock count failure")
	}
	return len(m.Records), nil
}

// Query returns all records in ID order with a fixed distance. Ranking
// behavior belongs to driver tests; the mock only needs stable output.
func (m *MockIndex) Query(_ context.Context, _ []float32, topK int) ([]vector.QueryHit, error) {
	if m.FailQuery {
		return nil, fmt.Errorf("mock query failure")
	}

	ids := make([]string, 0, len(m.Records))
	for id := range m.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if topK < len(ids) {
		ids = ids[:topK]
	}

	hits := make([]vector.QueryHit, 0, len(ids))
	for i, id := range ids {
		distance := 0.1 * float64(i+1)
		hits = append(hits, vector.QueryHit{
			Record:   m.Records[id],
			Distance: distance,
			Score:    vector.Score(distance),
		})
	}
	return hits, nil
}

func (m *MockIndex) Reset(_ context.Context) (int, error) {
	if m.FailReset {
		return 0, fmt.Errorf("mock reset failure")
	}
	n := len(m.Records)
	m.Records = make(map[string]vector.Record)
	return n, nil
}

func (m *MockIndex) Close() error {
	return nil
}

var _ vector.Index = (*MockIndex)(nil)
