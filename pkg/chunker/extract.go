package chunker

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/textnorm"
)

// FitzExtractor extracts per-page text from PDF bytes using MuPDF.
type FitzExtractor struct {
	logger *zap.Logger
}

// NewFitzExtractor creates a MuPDF-backed page extractor.
func NewFitzExtractor(logger *zap.Logger) *FitzExtractor {
	return &FitzExtractor{logger: logger}
}

// ExtractPages extracts and normalizes the text of every page. Pages whose
// text is empty, or becomes empty after normalization, are dropped: scanned
// images and blank pages carry nothing worth indexing, so losing them here
// is intentional rather than an error. Page numbers in the result stay
// 1-based against the PDF's physical order, holes included.
func (e *FitzExtractor) ExtractPages(pdf []byte) ([]Page, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	var pages []Page
	for i := 0; i < doc.NumPage(); i++ {
		raw, err := doc.Text(i)
		if err != nil {
			e.logger.Warn("failed to extract page text",
				zap.Int("page", i+1),
				zap.Error(err),
			)
			continue
		}
		if raw == "" {
			continue
		}

		cleaned := textnorm.Normalize(raw)
		if cleaned == "" {
			continue
		}

		pages = append(pages, Page{
			PageNumber: i + 1,
			Text:       cleaned,
		})
	}

	e.logger.Debug("extracted pdf pages",
		zap.Int("total", doc.NumPage()),
		zap.Int("kept", len(pages)),
	)

	return pages, nil
}

// Ensure FitzExtractor implements PageExtractor
var _ PageExtractor = (*FitzExtractor)(nil)
