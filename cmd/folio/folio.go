// Package foliocmder
package foliocmder

import (
	ingestcmder "github.com/foliodocs/folio/cmd/folio/ingest"
	searchcmder "github.com/foliodocs/folio/cmd/folio/search"
	servecmder "github.com/foliodocs/folio/cmd/folio/serve"
	versioncmder "github.com/foliodocs/folio/cmd/version"
	"github.com/spf13/cobra"
)

const folioLongDesc string = `Folio is semantic search for PDF manuals.

Upload PDF documentation, ask questions in plain language, and get back the
most relevant passages with page-level links into the source documents.

Common commands:
  folio serve            Run the API server
  folio ingest <pdf>     Index a PDF from the local filesystem
  folio search <query>   Query a running folio server`

const folioShortDesc string = "Folio - semantic search for PDF manuals"

func NewFolioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folio",
		Short: folioShortDesc,
		Long:  folioLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing config.toml")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
