package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/embeddings"
	"github.com/foliodocs/folio/pkg/rewriter"
	"github.com/foliodocs/folio/pkg/vector"
)

// DefaultTopK is the number of results returned when the caller does not ask
// for a specific count.
const DefaultTopK = 5

// Result is one retrieved chunk prepared for display.
type Result struct {
	// Content is the chunk text, optionally rewritten for display.
	Content string `json:"content"`

	// Score is the similarity score in (0, 1], higher is closer.
	Score float32 `json:"score"`

	// Metadata locates the chunk within its source document.
	Metadata vector.Metadata `json:"metadata"`

	// PDFLink is a deep link to the source page, "source#page=N".
	PDFLink string `json:"pdf_link"`
}

// Retriever answers similarity queries against the index. Retrieval is
// fail-soft: embedding or index errors surface as an empty result list with
// a logged warning, never as a request failure.
type Retriever struct {
	embedder embeddings.Embedder
	index    vector.Index
	rewriter rewriter.Rewriter
	logger   *zap.Logger
}

// NewRetriever creates a Retriever. The rewriter polishes chunk text for
// display; pass rewriter.NewNop() to return stored text unchanged.
func NewRetriever(
	embedder embeddings.Embedder,
	index vector.Index,
	rw rewriter.Rewriter,
	logger *zap.Logger,
) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		rewriter: rw,
		logger:   logger,
	}
}

// Query embeds the question and returns the topK closest chunks, best first.
// topK below 1 falls back to DefaultTopK. Hits with incomplete metadata are
// dropped silently. Only the chunks that survive filtering are rewritten.
func (r *Retriever) Query(ctx context.Context, question string, topK int) []Result {
	if topK < 1 {
		topK = DefaultTopK
	}

	hits, err := r.search(ctx, question, topK)
	if err != nil {
		r.logger.Warn("retrieval failed, returning no results",
			zap.String("question", question),
			zap.Error(err),
		)
		return []Result{}
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		if !hit.Metadata.Complete() {
			r.logger.Debug("dropping hit with incomplete metadata",
				zap.String("id", hit.ID),
			)
			continue
		}

		content := hit.Content
		if rewritten, err := r.rewriter.Rewrite(ctx, content); err != nil {
			// A rewriter outage degrades display quality, not retrieval.
			r.logger.Warn("rewrite failed, using stored text",
				zap.String("id", hit.ID),
				zap.Error(err),
			)
		} else {
			content = rewritten
		}

		results = append(results, Result{
			Content:  content,
			Score:    hit.Score,
			Metadata: hit.Metadata,
			PDFLink:  fmt.Sprintf("%s#page=%d", hit.Metadata.Source, hit.Metadata.PageNumber),
		})
	}

	r.logger.Info("answered query",
		zap.Int("top_k", topK),
		zap.Int("results", len(results)),
	)

	return results
}

// SearchSimilar is Query with a minimum score: hits scoring below threshold
// are filtered out after ranking.
func (r *Retriever) SearchSimilar(ctx context.Context, question string, topK int, threshold float32) []Result {
	results := r.Query(ctx, question, topK)

	filtered := results[:0]
	for _, res := range results {
		if res.Score >= threshold {
			filtered = append(filtered, res)
		}
	}
	return filtered
}

func (r *Retriever) search(ctx context.Context, question string, topK int) ([]vector.QueryHit, error) {
	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d embeddings for one question", ErrEmbeddingCount, len(vectors))
	}

	count, err := r.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	hits, err := r.index.Query(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	return hits, nil
}
