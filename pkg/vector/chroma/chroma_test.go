package chroma_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/vector"
	"github.com/foliodocs/folio/pkg/vector/chroma"
)

func TestChroma(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Chroma Driver Suite")
}

// fakeChroma is a minimal in-memory stand-in for the Chroma v2 REST API,
// enough for the driver's request/response handling to be exercised without
// a running server.
type fakeChroma struct {
	records map[string]vector.Record
}

func newFakeChroma() *fakeChroma {
	return &fakeChroma{records: map[string]vector.Record{}}
}

func (f *fakeChroma) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == "GET" && strings.HasSuffix(r.URL.Path, "/collections/document_embeddings"):
			json.NewEncoder(w).Encode(map[string]string{"id": "coll-1", "name": "document_embeddings"})

		case r.Method == "GET" && strings.HasSuffix(r.URL.Path, "/count"):
			json.NewEncoder(w).Encode(len(f.records))

		case strings.HasSuffix(r.URL.Path, "/upsert"):
			var req struct {
				IDs        []string         `json:"ids"`
				Embeddings [][]float32      `json:"embeddings"`
				Documents  []string         `json:"documents"`
				Metadatas  []map[string]any `json:"metadatas"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			for i, id := range req.IDs {
				f.records[id] = vector.Record{
					ID:        id,
					Embedding: req.Embeddings[i],
					Content:   req.Documents[i],
					Metadata: vector.Metadata{
						Source:     req.Metadatas[i]["source"].(string),
						Filename:   req.Metadatas[i]["filename"].(string),
						PageNumber: intOf(req.Metadatas[i]["page_number"]),
					},
				}
			}
			json.NewEncoder(w).Encode(map[string]any{})

		case strings.HasSuffix(r.URL.Path, "/get"):
			var req struct {
				Where map[string]any `json:"where"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			resp := map[string]any{"ids": []string{}, "documents": []string{}, "metadatas": []map[string]any{}}
			ids := []string{}
			docs := []string{}
			metas := []map[string]any{}
			for id, rec := range f.records {
				if src, ok := req.Where["source"]; ok && src != rec.Metadata.Source {
					continue
				}
				ids = append(ids, id)
				docs = append(docs, rec.Content)
				metas = append(metas, map[string]any{
					"source":      rec.Metadata.Source,
					"filename":    rec.Metadata.Filename,
					"page_number": rec.Metadata.PageNumber,
				})
			}
			resp["ids"], resp["documents"], resp["metadatas"] = ids, docs, metas
			json.NewEncoder(w).Encode(resp)

		case strings.HasSuffix(r.URL.Path, "/delete"):
			var req struct {
				IDs []string `json:"ids"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			for _, id := range req.IDs {
				delete(f.records, id)
			}
			json.NewEncoder(w).Encode(map[string]any{})

		case strings.HasSuffix(r.URL.Path, "/query"):
			var req struct {
				NResults int `json:"n_results"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			ids := []string{}
			docs := []string{}
			metas := []map[string]any{}
			dists := []float64{}
			i := 0
			for id, rec := range f.records {
				if i >= req.NResults {
					break
				}
				ids = append(ids, id)
				docs = append(docs, rec.Content)
				metas = append(metas, map[string]any{
					"source":      rec.Metadata.Source,
					"filename":    rec.Metadata.Filename,
					"page_number": rec.Metadata.PageNumber,
				})
				dists = append(dists, float64(i)*0.1)
				i++
			}
			json.NewEncoder(w).Encode(map[string]any{
				"ids":       [][]string{ids},
				"documents": [][]string{docs},
				"metadatas": [][]map[string]any{metas},
				"distances": [][]float64{dists},
			})

		default:
			http.Error(w, fmt.Sprintf("unexpected request: %s %s", r.Method, r.URL.Path), http.StatusNotFound)
		}
	})
}

func intOf(v any) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}

var _ = Describe("Driver", func() {
	var (
		fake   *fakeChroma
		server *httptest.Server
		driver *chroma.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		fake = newFakeChroma()
		server = httptest.NewServer(fake.handler())
		var err error
		driver, err = chroma.NewDriver(chroma.Config{URL: server.URL}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	AfterEach(func() {
		server.Close()
	})

	It("requires a URL", func() {
		_, err := chroma.NewDriver(chroma.Config{}, zap.NewNop())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("chroma URL is required"))
	})

	It("implements vector.Index", func() {
		var _ vector.Index = (*chroma.Driver)(nil)
	})

	Describe("Add and Count", func() {
		It("upserts records", func() {
			recs := []vector.Record{
				{
					ID:        "abc",
					Embedding: []float32{0.1, 0.2},
					Content:   "chunk text",
					Metadata: vector.Metadata{
						Source:     "/static/documents/m.pdf",
						Filename:   "m.pdf",
						PageNumber: 2,
					},
				},
			}
			Expect(driver.Add(ctx, recs)).To(Succeed())
			Expect(driver.Add(ctx, recs)).To(Succeed())

			count, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("does nothing for an empty batch", func() {
			Expect(driver.Add(ctx, nil)).To(Succeed())
		})
	})

	Describe("GetBySource", func() {
		It("filters by source path", func() {
			Expect(driver.Add(ctx, []vector.Record{
				{ID: "a", Embedding: []float32{1}, Content: "a", Metadata: vector.Metadata{Source: "/static/documents/a.pdf", Filename: "a.pdf", PageNumber: 1}},
				{ID: "b", Embedding: []float32{1}, Content: "b", Metadata: vector.Metadata{Source: "/static/documents/b.pdf", Filename: "b.pdf", PageNumber: 1}},
			})).To(Succeed())

			recs, err := driver.GetBySource(ctx, "/static/documents/a.pdf")
			Expect(err).NotTo(HaveOccurred())
			Expect(recs).To(HaveLen(1))
			Expect(recs[0].ID).To(Equal("a"))
			Expect(recs[0].Metadata.Filename).To(Equal("a.pdf"))
		})
	})

	Describe("Query", func() {
		It("returns no hits for an empty collection", func() {
			hits, err := driver.Query(ctx, []float32{0.5}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(BeEmpty())
		})

		It("clamps topK to the record count", func() {
			Expect(driver.Add(ctx, []vector.Record{
				{ID: "a", Embedding: []float32{1}, Content: "a", Metadata: vector.Metadata{Source: "/s/a.pdf", Filename: "a.pdf", PageNumber: 1}},
				{ID: "b", Embedding: []float32{1}, Content: "b", Metadata: vector.Metadata{Source: "/s/b.pdf", Filename: "b.pdf", PageNumber: 1}},
			})).To(Succeed())

			hits, err := driver.Query(ctx, []float32{0.5}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(2))
		})

		It("derives scores from distances", func() {
			Expect(driver.Add(ctx, []vector.Record{
				{ID: "a", Embedding: []float32{1}, Content: "a", Metadata: vector.Metadata{Source: "/s/a.pdf", Filename: "a.pdf", PageNumber: 1}},
			})).To(Succeed())

			hits, err := driver.Query(ctx, []float32{0.5}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].Score).To(Equal(vector.Score(hits[0].Distance)))
		})
	})

	Describe("Delete and Reset", func() {
		BeforeEach(func() {
			Expect(driver.Add(ctx, []vector.Record{
				{ID: "a", Embedding: []float32{1}, Content: "a", Metadata: vector.Metadata{Source: "/s/a.pdf", Filename: "a.pdf", PageNumber: 1}},
				{ID: "b", Embedding: []float32{1}, Content: "b", Metadata: vector.Metadata{Source: "/s/b.pdf", Filename: "b.pdf", PageNumber: 1}},
			})).To(Succeed())
		})

		It("deletes by ID", func() {
			Expect(driver.Delete(ctx, []string{"a"})).To(Succeed())
			count, _ := driver.Count(ctx)
			Expect(count).To(Equal(1))
		})

		It("resets the whole collection", func() {
			n, err := driver.Reset(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))

			count, _ := driver.Count(ctx)
			Expect(count).To(BeZero())
		})
	})
})
