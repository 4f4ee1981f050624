package sqlitevec_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/vector"
	"github.com/foliodocs/folio/pkg/vector/sqlitevec"
)

func TestSqliteVec(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SqliteVec Suite")
}

var _ = Describe("Driver", func() {
	var (
		driver *sqlitevec.Driver
		ctx    context.Context
	)

	newRecord := func(id, content, source string, page, index int, embedding []float32) vector.Record {
		return vector.Record{
			ID:        id,
			Content:   content,
			Embedding: embedding,
			Metadata: vector.Metadata{
				Source:      source,
				Filename:    "manual.pdf",
				PageNumber:  page,
				ChunkIndex:  index,
				TotalChunks: 3,
			},
		}
	}

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		driver, err = sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     ":memory:",
			Dimensions: 4,
		}, zap.NewNop())
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		Expect(driver.Close()).To(Succeed())
	})

	Describe("NewDriver", func() {
		It("requires a database path", func() {
			_, err := sqlitevec.NewDriver(sqlitevec.Config{Dimensions: 4}, zap.NewNop())
			Expect(err).To(HaveOccurred())
		})

		It("requires configured dimensions", func() {
			_, err := sqlitevec.NewDriver(sqlitevec.Config{DBPath: ":memory:"}, zap.NewNop())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Add", func() {
		It("stores records with content and metadata", func() {
			rec := newRecord("id-1", "install the pump", "/static/documents/manual.pdf", 1, 0, []float32{1, 0, 0, 0})
			Expect(driver.Add(ctx, []vector.Record{rec})).To(Succeed())

			count, err := driver.Count(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(1))

			got, err := driver.GetBySource(ctx, "/static/documents/manual.pdf")
			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].ID).To(Equal("id-1"))
			Expect(got[0].Content).To(Equal("install the pump"))
			Expect(got[0].Metadata.PageNumber).To(Equal(1))
			Expect(got[0].Embedding).To(Equal([]float32{1, 0, 0, 0}))
		})

		It("upserts by ID rather than duplicating", func() {
			rec := newRecord("id-1", "first", "/static/documents/manual.pdf", 1, 0, []float32{1, 0, 0, 0})
			Expect(driver.Add(ctx, []vector.Record{rec})).To(Succeed())

			rec.Content = "second"
			rec.Embedding = []float32{0, 1, 0, 0}
			Expect(driver.Add(ctx, []vector.Record{rec})).To(Succeed())

			count, err := driver.Count(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(1))

			got, err := driver.GetBySource(ctx, "/static/documents/manual.pdf")
			Expect(err).ToNot(HaveOccurred())
			Expect(got[0].Content).To(Equal("second"))
			Expect(got[0].Embedding).To(Equal([]float32{0, 1, 0, 0}))
		})

		It("rejects embeddings with the wrong width", func() {
			rec := newRecord("id-1", "text", "/static/documents/manual.pdf", 1, 0, []float32{1, 0})
			err := driver.Add(ctx, []vector.Record{rec})
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})

		It("accepts an empty batch", func() {
			Expect(driver.Add(ctx, nil)).To(Succeed())
		})
	})

	Describe("Query", func() {
		BeforeEach(func() {
			recs := []vector.Record{
				newRecord("id-x", "exact match", "/static/documents/a.pdf", 1, 0, []float32{1, 0, 0, 0}),
				newRecord("id-y", "close match", "/static/documents/a.pdf", 2, 0, []float32{0.9, 0.1, 0, 0}),
				newRecord("id-z", "far away", "/static/documents/b.pdf", 1, 0, []float32{0, 0, 0, 1}),
			}
			Expect(driver.Add(ctx, recs)).To(Succeed())
		})

		It("returns hits ordered by ascending distance", func() {
			hits, err := driver.Query(ctx, []float32{1, 0, 0, 0}, 3)
			Expect(err).ToNot(HaveOccurred())
			Expect(hits).To(HaveLen(3))
			Expect(hits[0].ID).To(Equal("id-x"))
			Expect(hits[1].ID).To(Equal("id-y"))
			Expect(hits[2].ID).To(Equal("id-z"))
		})

		It("limits results to topK", func() {
			hits, err := driver.Query(ctx, []float32{1, 0, 0, 0}, 2)
			Expect(err).ToNot(HaveOccurred())
			Expect(hits).To(HaveLen(2))
		})

		It("derives each score from its distance", func() {
			hits, err := driver.Query(ctx, []float32{1, 0, 0, 0}, 3)
			Expect(err).ToNot(HaveOccurred())
			for _, hit := range hits {
				Expect(hit.Score).To(Equal(vector.Score(hit.Distance)))
				Expect(hit.Score).To(BeNumerically(">", 0))
				Expect(hit.Score).To(BeNumerically("<=", 1))
			}
		})

		It("carries chunk metadata through to hits", func() {
			hits, err := driver.Query(ctx, []float32{1, 0, 0, 0}, 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(hits[0].Metadata.Source).To(Equal("/static/documents/a.pdf"))
			Expect(hits[0].Metadata.Filename).To(Equal("manual.pdf"))
			Expect(hits[0].Metadata.PageNumber).To(Equal(1))
		})
	})

	Describe("Delete", func() {
		It("removes only the named records", func() {
			recs := []vector.Record{
				newRecord("id-1", "one", "/static/documents/a.pdf", 1, 0, []float32{1, 0, 0, 0}),
				newRecord("id-2", "two", "/static/documents/a.pdf", 2, 0, []float32{0, 1, 0, 0}),
			}
			Expect(driver.Add(ctx, recs)).To(Succeed())

			Expect(driver.Delete(ctx, []string{"id-1"})).To(Succeed())

			count, err := driver.Count(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(1))

			got, err := driver.GetBySource(ctx, "/static/documents/a.pdf")
			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].ID).To(Equal("id-2"))
		})

		It("accepts an empty ID list", func() {
			Expect(driver.Delete(ctx, nil)).To(Succeed())
		})
	})

	Describe("GetBySource", func() {
		It("returns nothing for an unknown source", func() {
			got, err := driver.GetBySource(ctx, "/static/documents/missing.pdf")
			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(BeEmpty())
		})
	})

	Describe("Reset", func() {
		It("drops everything and reports how many", func() {
			recs := []vector.Record{
				newRecord("id-1", "one", "/static/documents/a.pdf", 1, 0, []float32{1, 0, 0, 0}),
				newRecord("id-2", "two", "/static/documents/b.pdf", 1, 0, []float32{0, 1, 0, 0}),
			}
			Expect(driver.Add(ctx, recs)).To(Succeed())

			deleted, err := driver.Reset(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(deleted).To(Equal(2))

			count, err := driver.Count(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(Equal(0))
		})
	})
})
