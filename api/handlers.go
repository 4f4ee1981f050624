package api

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/document"
	"github.com/foliodocs/folio/pkg/eventstream"
	"github.com/foliodocs/folio/pkg/pipeline"
)

// ErrorResponse is the JSON body returned on request failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UploadResponse is returned after a successful document upload.
type UploadResponse struct {
	// DocumentID is the ID of the document's first chunk, empty when the
	// PDF produced no indexable text.
	DocumentID string `json:"document_id"`

	Filename      string `json:"filename"`
	SourcePath    string `json:"source_path"`
	Pages         int    `json:"pages"`
	ChunksCreated int    `json:"chunks_created"`
}

// QueryRequest is the body of a POST /query request.
type QueryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// QueryResponse is the body of a POST /query response.
type QueryResponse struct {
	Results []pipeline.Result `json:"results"`
	Count   int               `json:"count"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStats returns index statistics.
func (s *Server) handleStats(c *fiber.Ctx) error {
	count, err := s.manager.Count(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to count chunks"})
	}

	return c.JSON(map[string]any{
		"chunks": count,
	})
}

// handleUpload ingests a PDF: stores the file, extracts and chunks its text,
// embeds the chunks and indexes them. A PDF with no extractable text is a
// successful upload with zero chunks.
func (s *Server) handleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "file field is required"})
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "only PDF files are supported"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to open uploaded file"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read uploaded file"})
	}

	ctx := c.Context()

	source, err := s.blobs.Save(ctx, data, fileHeader.Filename)
	if err != nil {
		s.logger.Error("failed to store uploaded file",
			zap.String("filename", fileHeader.Filename),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to store file"})
	}

	result, err := s.ingestor.IngestPDF(ctx, data, source, fileHeader.Filename)
	if err != nil {
		s.logger.Error("failed to ingest document",
			zap.String("filename", fileHeader.Filename),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to process document"})
	}

	s.publishIngested(ctx, fileHeader.Filename, result)

	resp := UploadResponse{
		Filename:      fileHeader.Filename,
		SourcePath:    result.Source,
		Pages:         result.Pages,
		ChunksCreated: len(result.ChunkIDs),
	}
	if len(result.ChunkIDs) > 0 {
		resp.DocumentID = result.ChunkIDs[0]
	}

	return c.JSON(resp)
}

// handleQuery answers a question with the closest indexed chunks. Retrieval
// failures degrade to an empty result list rather than an error status.
func (s *Server) handleQuery(c *fiber.Ctx) error {
	var req QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.Question) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "question is required"})
	}

	results := s.retriever.Query(c.Context(), req.Question, req.TopK)

	return c.JSON(QueryResponse{
		Results: results,
		Count:   len(results),
	})
}

// handleDeleteDocument removes every trace of a document: its indexed
// chunks, verified, then its stored file.
func (s *Server) handleDeleteDocument(c *fiber.Ctx) error {
	filename := c.Params("filename")
	if decoded, err := url.PathUnescape(filename); err == nil {
		filename = decoded
	}
	if filename == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "filename parameter required"})
	}

	result, err := s.manager.DeleteDocument(c.Context(), filename)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "document not found"})
		}
		s.logger.Error("failed to delete document",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete document"})
	}

	s.publishDeleted(c.Context(), result)

	return c.JSON(result)
}

// handleDeleteAll removes every chunk from the index. Stored files are kept.
func (s *Server) handleDeleteAll(c *fiber.Ctx) error {
	deleted, err := s.manager.DeleteAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete documents"})
	}

	return c.JSON(map[string]any{
		"chunks_deleted": deleted,
	})
}

// publishIngested emits a document-ingested event. Publishing is best-effort:
// failures are logged, never surfaced to the uploader.
func (s *Server) publishIngested(ctx context.Context, filename string, result *pipeline.IngestResult) {
	event := eventstream.DocumentIngestedEvent{
		Envelope:   eventstream.NewEnvelope(eventstream.EventTypeDocumentIngested),
		Filename:   filename,
		SourcePath: result.Source,
		Pages:      result.Pages,
		Chunks:     len(result.ChunkIDs),
	}

	if err := s.events.PublishIngested(ctx, event); err != nil {
		s.logger.Warn("failed to publish ingested event",
			zap.String("filename", filename),
			zap.Error(err),
		)
	}
}

// publishDeleted emits a document-deleted event, best-effort.
func (s *Server) publishDeleted(ctx context.Context, result *document.DeleteResult) {
	event := eventstream.DocumentDeletedEvent{
		Envelope:      eventstream.NewEnvelope(eventstream.EventTypeDocumentDeleted),
		Filename:      result.Filename,
		SourcePath:    result.SourcePath,
		ChunksDeleted: result.ChunksDeleted,
		FileDeleted:   result.FileDeleted,
	}

	if err := s.events.PublishDeleted(ctx, event); err != nil {
		s.logger.Warn("failed to publish deleted event",
			zap.String("filename", result.Filename),
			zap.Error(err),
		)
	}
}
