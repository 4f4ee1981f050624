// Package servecmder provides the serve command for running the folio API
// server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foliodocs/folio/api"
	"github.com/foliodocs/folio/pkg/blob/local"
	"github.com/foliodocs/folio/pkg/chunker"
	"github.com/foliodocs/folio/pkg/config"
	"github.com/foliodocs/folio/pkg/document"
	embeddingutils "github.com/foliodocs/folio/pkg/embeddings/utils"
	eventstreamutils "github.com/foliodocs/folio/pkg/eventstream/utils"
	"github.com/foliodocs/folio/pkg/logger"
	"github.com/foliodocs/folio/pkg/pipeline"
	rewriterutils "github.com/foliodocs/folio/pkg/rewriter/utils"
	vectorutils "github.com/foliodocs/folio/pkg/vector/utils"
)

type serveCommander struct {
	listen         string
	uploadDir      string
	vectorProvider string
	vectorTarget   string
	embedProvider  string
	embedTarget    string
	embedModel     string
	embedDims      uint
	embedAPIKey    string
	rewriteProv    string
	rewriteTarget  string
	rewriteModel   string
	eventsProvider string
	eventsTopic    string

	cfg    *config.Config
	debug  bool
	logger *zap.Logger
}

const serveLongDesc string = `Run the folio API server.

The server accepts PDF uploads, answers semantic queries over the indexed
documents, and serves the stored PDFs so results can link to source pages.

Example:
  folio serve
  folio serve --listen :9090 --vector-store-provider chroma --vector-store-target http://localhost:8000
  folio serve --embedding-provider gemini --embedding-api-key $GEMINI_API_KEY`

const serveShortDesc string = "Run the folio API server"

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagUploadDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEmbeddingAPIKey,
	config.FlagRewriterProv,
	config.FlagRewriterTgt,
	config.FlagRewriterModel,
	config.FlagEventsProv,
	config.FlagEventsTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlagKeys)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagUploadDir, &cmder.uploadDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vectorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embedProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embedTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embedDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingAPIKey, &cmder.embedAPIKey)
	config.AddStringFlag(cmd, config.Flags, config.FlagRewriterProv, &cmder.rewriteProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagRewriterTgt, &cmder.rewriteTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagRewriterModel, &cmder.rewriteModel)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProv, &cmder.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &cmder.eventsTopic)

	return cmd
}

func (c *serveCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	cfg := c.cfg

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		APIKey:       cfg.Embedding.APIKey,
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	index, err := vectorutils.NewVectorIndex(vectorutils.NewVectorIndexOpts{
		ProviderType: cfg.VectorStore.Provider,
		TargetURL:    cfg.VectorStore.Target,
		Dimensions:   cfg.Embedding.Dimensions,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating vector index: %w", err)
	}
	defer index.Close()

	rw, err := rewriterutils.NewRewriter(&rewriterutils.NewRewriterOpts{
		ProviderType: cfg.Rewriter.Provider,
		TargetURL:    cfg.Rewriter.Target,
		Model:        cfg.Rewriter.Model,
	})
	if err != nil {
		return fmt.Errorf("creating rewriter: %w", err)
	}
	defer rw.Close()

	events, err := eventstreamutils.NewPublisher(eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      cfg.Events.Brokers,
		Topic:        cfg.Events.Topic,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer events.Close()

	blobs, err := local.NewStore(cfg.Storage.UploadDir, c.logger)
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}

	extractor := chunker.NewFitzExtractor(c.logger)
	ingestor := pipeline.NewIngestor(extractor, chunker.New(), embedder, index, c.logger)
	retriever := pipeline.NewRetriever(embedder, index, rw, c.logger)
	manager := document.NewManager(index, blobs, c.logger)

	server := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
		UploadDir:  cfg.Storage.UploadDir,
	}, ingestor, retriever, manager, blobs, events, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
