package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/blob"
	"github.com/foliodocs/folio/pkg/document"
	"github.com/foliodocs/folio/pkg/eventstream"
	"github.com/foliodocs/folio/pkg/pipeline"
)

// Server is the API server for the folio document search system
type Server struct {
	config    Config
	ingestor  *pipeline.Ingestor
	retriever *pipeline.Retriever
	manager   *document.Manager
	blobs     blob.Store
	events    eventstream.Publisher
	logger    *zap.Logger
	app       *fiber.App
}

// NewServer creates a new API server. Collaborators are injected so tests
// and the CLI can share construction.
func NewServer(
	config Config,
	ingestor *pipeline.Ingestor,
	retriever *pipeline.Retriever,
	manager *document.Manager,
	blobs blob.Store,
	events eventstream.Publisher,
	logger *zap.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             100 * 1024 * 1024, // scanned manuals get large
	})

	s := &Server{
		config:    config,
		ingestor:  ingestor,
		retriever: retriever,
		manager:   manager,
		blobs:     blobs,
		events:    events,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/stats", s.handleStats)
	app.Post("/upload", s.handleUpload)
	app.Post("/query", s.handleQuery)
	app.Delete("/document/:filename", s.handleDeleteDocument)
	app.Delete("/documents", s.handleDeleteAll)

	// Serve stored PDFs so pdf_link deep links resolve.
	if config.UploadDir != "" {
		app.Static(blob.UploadRoot, config.UploadDir)
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
