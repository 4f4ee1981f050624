// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/foliodocs/folio/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for chunk embeddings.
	DefaultCollectionName = "document_embeddings"
)

// Driver implements vector.Index using Chroma's REST API.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *zap.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string
}

// NewDriver creates a new Chroma vector driver.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	d := &Driver{
		baseURL:        c.URL,
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	// Get or create the collection
	collectionID, err := d.getOrCreateCollection(context.Background())
	if err != nil {
		return nil, fmt.Errorf("getting or creating collection %q: %w", collectionName, err)
	}
	d.collectionID = collectionID

	logger.Info("connected to Chroma",
		zap.String("url", c.URL),
		zap.String("collection", collectionName),
		zap.String("collection_id", collectionID),
	)

	return d, nil
}

func (d *Driver) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections/%s%s",
		d.baseURL, d.collectionID, suffix)
}

// getOrCreateCollection gets an existing collection or creates a new one.
func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	// Try to get existing collection first
	url := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections/%s", d.baseURL, d.collectionName)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("creating get request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var collection chromaCollection
		if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
			return "", fmt.Errorf("decoding collection response: %w", err)
		}
		return collection.ID, nil
	}

	// Collection doesn't exist, create it
	createURL := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections", d.baseURL)
	createBody := map[string]any{
		"name":     d.collectionName,
		"metadata": map[string]any{"hnsw:space": "cosine"},
	}
	jsonBody, err := json.Marshal(createBody)
	if err != nil {
		return "", fmt.Errorf("marshaling create request: %w", err)
	}

	req, err = http.NewRequestWithContext(ctx, "POST", createURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to create collection: status %d: %s", resp.StatusCode, string(body))
	}

	var collection chromaCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return "", fmt.Errorf("decoding create response: %w", err)
	}

	return collection.ID, nil
}

// post sends a JSON body to a collection endpoint and decodes the response
// into out when out is non-nil.
func (d *Driver) post(ctx context.Context, suffix string, body any, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.collectionURL(suffix), bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma %s: status %d: %s", suffix, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Add stores records with their embeddings, upserting by ID.
func (d *Driver) Add(ctx context.Context, recs []vector.Record) error {
	if len(recs) == 0 {
		return nil
	}

	reqBody := chromaAddRequest{
		IDs:        make([]string, len(recs)),
		Embeddings: make([][]float32, len(recs)),
		Documents:  make([]string, len(recs)),
		Metadatas:  make([]map[string]any, len(recs)),
	}
	for i, rec := range recs {
		reqBody.IDs[i] = rec.ID
		reqBody.Embeddings[i] = rec.Embedding
		reqBody.Documents[i] = rec.Content
		reqBody.Metadatas[i] = metadataToMap(rec.Metadata)
	}

	// /upsert rather than /add so re-ingesting an unchanged document
	// overwrites its chunks instead of failing on existing IDs.
	if err := d.post(ctx, "/upsert", reqBody, nil); err != nil {
		return fmt.Errorf("adding records: %w", err)
	}

	d.logger.Debug("added records to chroma",
		zap.Int("count", len(recs)),
	)

	return nil
}

// GetBySource retrieves all records whose metadata source matches.
func (d *Driver) GetBySource(ctx context.Context, source string) ([]vector.Record, error) {
	reqBody := chromaGetRequest{
		Where:   map[string]any{"source": source},
		Include: []string{"documents", "metadatas"},
	}

	var getResp chromaGetResponse
	if err := d.post(ctx, "/get", reqBody, &getResp); err != nil {
		return nil, fmt.Errorf("getting records by source: %w", err)
	}

	recs := make([]vector.Record, len(getResp.IDs))
	for i, id := range getResp.IDs {
		recs[i] = vector.Record{ID: id}
		if i < len(getResp.Documents) {
			recs[i].Content = getResp.Documents[i]
		}
		if i < len(getResp.Metadatas) {
			recs[i].Metadata = metadataFromMap(getResp.Metadatas[i])
		}
	}

	return recs, nil
}

// Delete removes records by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := d.post(ctx, "/delete", chromaDeleteRequest{IDs: ids}, nil); err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}

	d.logger.Debug("deleted records from chroma",
		zap.Int("count", len(ids)),
	)

	return nil
}

// Count returns the total number of stored records.
func (d *Driver) Count(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", d.collectionURL("/count"), nil)
	if err != nil {
		return 0, fmt.Errorf("creating count request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("failed to count: status %d: %s", resp.StatusCode, string(body))
	}

	var count int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		return 0, fmt.Errorf("decoding count response: %w", err)
	}
	return count, nil
}

// Query finds the topK records most similar to the given embedding, closest
// first. topK is clamped against the live record count; asking for more than
// exist returns all of them.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryHit, error) {
	count, err := d.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	if topK < 1 {
		topK = 1
	}
	if topK > count {
		topK = count
	}

	reqBody := chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
		Include:         []string{"documents", "metadatas", "distances"},
	}

	var queryResp chromaQueryResponse
	if err := d.post(ctx, "/query", reqBody, &queryResp); err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}

	// Unwrap the per-query nesting once, here. We only ever send one query
	// embedding, so only the first group matters.
	if len(queryResp.IDs) == 0 || len(queryResp.IDs[0]) == 0 {
		return nil, nil
	}

	ids := queryResp.IDs[0]
	var distances []float64
	if len(queryResp.Distances) > 0 {
		distances = queryResp.Distances[0]
	}
	var documents []string
	if len(queryResp.Documents) > 0 {
		documents = queryResp.Documents[0]
	}
	var metadatas []map[string]any
	if len(queryResp.Metadatas) > 0 {
		metadatas = queryResp.Metadatas[0]
	}

	hits := make([]vector.QueryHit, 0, len(ids))
	for i, id := range ids {
		hit := vector.QueryHit{
			Record: vector.Record{ID: id},
		}
		if i < len(documents) {
			hit.Content = documents[i]
		}
		if i < len(metadatas) {
			hit.Metadata = metadataFromMap(metadatas[i])
		}
		if i < len(distances) {
			hit.Distance = distances[i]
			hit.Score = vector.Score(distances[i])
		}
		hits = append(hits, hit)
	}

	d.logger.Debug("queried chroma",
		zap.Int("results", len(hits)),
	)

	return hits, nil
}

// Reset removes every record and returns how many were removed.
func (d *Driver) Reset(ctx context.Context) (int, error) {
	var getResp chromaGetResponse
	if err := d.post(ctx, "/get", chromaGetRequest{}, &getResp); err != nil {
		return 0, fmt.Errorf("listing records for reset: %w", err)
	}

	if len(getResp.IDs) == 0 {
		return 0, nil
	}

	if err := d.Delete(ctx, getResp.IDs); err != nil {
		return 0, fmt.Errorf("resetting collection: %w", err)
	}

	d.logger.Info("reset chroma collection",
		zap.String("collection", d.collectionName),
		zap.Int("deleted", len(getResp.IDs)),
	)

	return len(getResp.IDs), nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// Ensure Driver implements vector.Index
var _ vector.Index = (*Driver)(nil)
