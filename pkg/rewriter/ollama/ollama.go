// Package ollama implements pkg/rewriter's Rewriter on Ollama's generate API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/foliodocs/folio/pkg/rewriter"
)

const (
	// DefaultModel is the default generation model used for text cleanup.
	DefaultModel = "llama3.2"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"
)

// cleanupPrompt instructs the model to repair extraction artifacts without
// rewriting content. Temperature zero keeps the pass deterministic.
const cleanupPrompt = `You are a technical document processor. Clean this text extracted from a service manual:

RULES:
1. REMOVE ALL RANDOM SPACES WITHIN WORDS (e.g., "d r e a m s" -> "dreams")
2. FIX HYPHENATED WORDS SPLIT AT LINE BREAKS (e.g., "WARN-\nING" -> "WARNING")
3. PRESERVE TECHNICAL TERMS, PART NUMBERS, AND SAFETY WARNINGS EXACTLY
4. KEEP ALL NUMBERS AND SYMBOLS INTACT (e.g., "240V", "M-123A")
5. MAINTAIN ORIGINAL MEANING - DO NOT SUMMARIZE OR REWRITE
6. OUTPUT ONLY THE CLEANED TEXT - NO ADDITIONAL COMMENTARY

Original text:
`

// Rewriter cleans text through Ollama's generate API.
type Rewriter struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config holds configuration for the Ollama rewriter.
type Config struct {
	// BaseURL is the Ollama API URL. Defaults to DefaultBaseURL if empty.
	BaseURL string

	// Model is the generation model to use. Defaults to DefaultModel.
	Model string
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// NewRewriter creates a rewriter backed by Ollama's generate API.
func NewRewriter(cfg Config) (*Rewriter, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Rewriter{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Rewrite cleans extraction artifacts out of text. Blank input is returned
// unchanged without an API call.
func (r *Rewriter) Rewrite(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	reqBody := generateRequest{
		Model:  r.model,
		Prompt: cleanupPrompt + text,
		Stream: false,
		Options: map[string]any{
			"temperature": 0.0,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decoding generate response: %w", err)
	}

	return strings.TrimSpace(genResp.Response), nil
}

// Close releases resources held by the rewriter.
func (r *Rewriter) Close() error {
	return nil
}

var _ rewriter.Rewriter = (*Rewriter)(nil)
