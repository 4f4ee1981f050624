// Package ingestcmder provides the ingest command for indexing local PDFs
// without going through the HTTP API.
package ingestcmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/blob/local"
	"github.com/foliodocs/folio/pkg/chunker"
	"github.com/foliodocs/folio/pkg/config"
	embeddingutils "github.com/foliodocs/folio/pkg/embeddings/utils"
	"github.com/foliodocs/folio/pkg/logger"
	"github.com/foliodocs/folio/pkg/pipeline"
	vectorutils "github.com/foliodocs/folio/pkg/vector/utils"
)

type ingestCommander struct {
	uploadDir      string
	vectorProvider string
	vectorTarget   string
	embedProvider  string
	embedTarget    string
	embedModel     string
	embedDims      uint
	embedAPIKey    string

	cfg    *config.Config
	debug  bool
	logger *zap.Logger
}

const ingestLongDesc string = `Index one or more PDFs from the local filesystem.

Each PDF is copied into the upload directory, its text extracted and chunked,
and the chunks embedded and stored in the configured vector index. The result
is identical to uploading the file through the API.

Example:
  folio ingest manuals/dishwasher.pdf
  folio ingest manuals/*.pdf --vector-store-provider sqlitevec --vector-store-target folio.db`

const ingestShortDesc string = "Index local PDFs"

var ingestFlagKeys = []string{
	config.FlagUploadDir,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEmbeddingAPIKey,
}

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest <pdf>...",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, ingestFlagKeys)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			return cmder.run(cmd.Context(), args)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagUploadDir, &cmder.uploadDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreProv, &cmder.vectorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embedProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embedTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &cmder.embedDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingAPIKey, &cmder.embedAPIKey)

	return cmd
}

func (c *ingestCommander) run(ctx context.Context, paths []string) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	cfg := c.cfg

	for _, path := range paths {
		if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
			return fmt.Errorf("%s: only PDF files are supported", path)
		}
	}

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

	blobs, err := local.NewStore(cfg.Storage.UploadDir, c.logger)
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}

	ingestor := pipeline.NewIngestor(
		chunker.NewFitzExtractor(c.logger),
		chunker.New(),
		embedder,
		index,
		c.logger,
	)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		filename := filepath.Base(path)

		source, err := blobs.Save(ctx, data, filename)
		if err != nil {
			return fmt.Errorf("storing %s: %w", path, err)
		}

		result, err := ingestor.IngestPDF(ctx, data, source, filename)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}

		fmt.Printf("%s: %d pages, %d chunks indexed\n", filename, result.Pages, len(result.ChunkIDs))
	}

	return nil
}
