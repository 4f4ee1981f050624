// Package chunker turns extracted PDF page text into size-bounded,
// page-anchored chunks ready for embedding.
package chunker

import (
	"strings"

	"github.com/foliodocs/folio/pkg/textnorm"
	"github.com/foliodocs/folio/pkg/vector"
)

const (
	// DefaultChunkSize is the target chunk length in bytes, tuned for
	// technical manuals.
	DefaultChunkSize = 800

	// DefaultChunkOverlap is how many bytes consecutive chunks share.
	DefaultChunkOverlap = 100

	// minParagraphLen is the byte floor below which a paragraph is too
	// short to be meaningful technical content.
	minParagraphLen = 50

	// minChunkLen is the byte floor below which a split fragment is noise.
	minChunkLen = 30
)

// Page is one non-empty extracted PDF page. PageNumber is 1-based and
// matches the PDF's physical page order.
type Page struct {
	PageNumber int
	Text       string
}

// Chunk is a bounded span of normalized document text, the unit stored in
// and retrieved from the vector index.
type Chunk struct {
	Content  string
	Metadata vector.Metadata
}

// PageExtractor extracts per-page text from raw PDF bytes.
type PageExtractor interface {
	ExtractPages(pdf []byte) ([]Page, error)
}

// Chunker splits normalized pages into overlapping chunks.
type Chunker struct {
	splitter *Splitter
}

// New creates a Chunker with the default size and overlap.
func New() *Chunker {
	return NewWithSize(DefaultChunkSize, DefaultChunkOverlap)
}

// NewWithSize creates a Chunker with an explicit chunk size and overlap.
func NewWithSize(chunkSize, overlap int) *Chunker {
	return &Chunker{
		splitter: NewSplitter(chunkSize, overlap),
	}
}

// SplitPages chunks every page and stamps each chunk with its location.
// Source and filename are the caller-supplied document identity; page
// number, chunk index, and total chunks come from the split itself and
// cannot be overridden by the caller.
//
// Per page: split on the paragraph separator, skip paragraphs under 50
// bytes, split each survivor with the recursive splitter, and skip
// fragments under 30 bytes. ChunkIndex is the fragment's 0-based
// position within its paragraph (dropped fragments still occupy an index),
// and TotalChunks is that paragraph's fragment count. Identical paragraphs
// on different pages produce colliding chunk indexes; the page number in the
// chunk identity is what keeps IDs unique.
func (c *Chunker) SplitPages(pages []Page, source, filename string) []Chunk {
	var chunks []Chunk

	for _, page := range pages {
		paragraphs := strings.Split(page.Text, textnorm.ParagraphSeparator)
		for _, para := range paragraphs {
			para = strings.TrimSpace(para)
			if len(para) < minParagraphLen {
				continue
			}

			fragments := c.splitter.Split(para)
			for idx, fragment := range fragments {
				if len(fragment) < minChunkLen {
					continue
				}

				chunks = append(chunks, Chunk{
					Content: strings.TrimSpace(fragment),
					Metadata: vector.Metadata{
						Source:      source,
						Filename:    filename,
						PageNumber:  page.PageNumber,
						ChunkIndex:  idx,
						TotalChunks: len(fragments),
					},
				})
			}
		}
	}

	return chunks
}
