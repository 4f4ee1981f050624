// Package searchcmder provides the search command for querying a running
// folio server.
package searchcmder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/foliodocs/folio/pkg/pipeline"
)

type searchCommander struct {
	topK      int
	apiTarget string
	jsonOut   bool
}

const searchLongDesc string = `Query a running folio server.

Sends the question to the server's /query endpoint and prints the most
relevant passages with their source page links.

Example:
  folio search "how do I descale the machine"
  folio search "error code E4" --top 10
  folio search "safety precautions" --api-target http://folio.internal:8080 --json`

const searchShortDesc string = "Query a running folio server"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <question>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmder.run(args[0])
		},
	}

	cmd.Flags().IntVarP(&cmder.topK, "top", "t", pipeline.DefaultTopK, "Number of results to return")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", "http://localhost:8080", "URL of the folio server")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print raw JSON results")

	return cmd
}

type queryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

type queryResponse struct {
	Results []pipeline.Result `json:"results"`
	Count   int               `json:"count"`
}

func (c *searchCommander) run(question string) error {
	body, err := json.Marshal(queryRequest{
		Question: question,
		TopK:     c.topK,
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	resp, err := http.Post(c.apiTarget+"/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("querying %s: %w", c.apiTarget, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s: %s", resp.Status, payload)
	}

	if c.jsonOut {
		fmt.Println(string(payload))
		return nil
	}

	var result queryResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if result.Count == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, res := range result.Results {
		fmt.Printf("%d. [%.3f] %s (page %d)\n", i+1, res.Score, res.Metadata.Filename, res.Metadata.PageNumber)
		fmt.Printf("   %s\n", res.Content)
		fmt.Printf("   %s\n\n", res.PDFLink)
	}

	return nil
}
