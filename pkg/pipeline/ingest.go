// Package pipeline wires extraction, chunking, embedding and indexing into
// the ingestion and retrieval flows.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/chunker"
	"github.com/foliodocs/folio/pkg/docid"
	"github.com/foliodocs/folio/pkg/embeddings"
	"github.com/foliodocs/folio/pkg/vector"
)

// Ingestor turns chunked document text into indexed vector records.
// Ingestion is fail-fast: any embedding or indexing error aborts the whole
// batch so the index never holds a partially embedded document.
type Ingestor struct {
	extractor chunker.PageExtractor
	chunker   *chunker.Chunker
	embedder  embeddings.Embedder
	index     vector.Index
	logger    *zap.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(
	extractor chunker.PageExtractor,
	ch *chunker.Chunker,
	embedder embeddings.Embedder,
	index vector.Index,
	logger *zap.Logger,
) *Ingestor {
	return &Ingestor{
		extractor: extractor,
		chunker:   ch,
		embedder:  embedder,
		index:     index,
		logger:    logger,
	}
}

// AddChunks embeds the chunks in one batch and stores them. Returned IDs are
// in chunk order. An empty chunk list is a no-op, not an error: a scanned PDF
// with no extractable text is a valid upload.
func (ing *Ingestor) AddChunks(ctx context.Context, chunks []chunker.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		id, err := docid.DeriveID(c.Metadata.Source, c.Metadata.PageNumber, c.Metadata.ChunkIndex)
		if err != nil {
			return nil, fmt.Errorf("deriving chunk id: %w", err)
		}
		ids[i] = id
		texts[i] = c.Content
	}

	vectors, err := ing.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks",
			ErrEmbeddingCount, len(vectors), len(chunks))
	}

	recs := make([]vector.Record, len(chunks))
	for i, c := range chunks {
		recs[i] = vector.Record{
			ID:        ids[i],
			Embedding: vectors[i],
			Content:   c.Content,
			Metadata:  c.Metadata,
		}
	}

	if err := ing.index.Add(ctx, recs); err != nil {
		return nil, fmt.Errorf("indexing chunks: %w", err)
	}

	ing.logger.Info("indexed chunks",
		zap.Int("count", len(recs)),
		zap.String("source", chunks[0].Metadata.Source),
	)

	return ids, nil
}

// IngestResult describes a completed document ingestion.
type IngestResult struct {
	// ChunkIDs are the IDs of the indexed chunks, in chunk order.
	ChunkIDs []string

	// Pages is the number of pages that yielded text.
	Pages int

	// Source is the canonical source path the chunks were stored under.
	Source string
}

// IngestPDF extracts, chunks, embeds and indexes a PDF. Source must be the
// canonical path from blob.SourcePath and filename the original upload name.
// A PDF whose pages all normalize to empty produces a result with no chunk
// IDs rather than an error.
func (ing *Ingestor) IngestPDF(ctx context.Context, pdf []byte, source, filename string) (*IngestResult, error) {
	pages, err := ing.extractor.ExtractPages(pdf)
	if err != nil {
		return nil, fmt.Errorf("extracting pages: %w", err)
	}

	chunks := ing.chunker.SplitPages(pages, source, filename)

	ids, err := ing.AddChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	ing.logger.Info("ingested document",
		zap.String("filename", filename),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(ids)),
	)

	return &IngestResult{
		ChunkIDs: ids,
		Pages:    len(pages),
		Source:   source,
	}, nil
}
