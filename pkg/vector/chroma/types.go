package chroma

import "github.com/foliodocs/folio/pkg/vector"

// chromaCollection represents a Chroma collection response.
type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// chromaAddRequest is the request body for adding records.
type chromaAddRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Documents  []string         `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
}

// chromaQueryRequest is the request body for querying.
type chromaQueryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

// chromaQueryResponse is the response from a query. Chroma nests every field
// one level per query embedding; we always send exactly one.
type chromaQueryResponse struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float64        `json:"distances"`
	Documents [][]string         `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

// chromaGetRequest is the request body for getting records by filter or ID.
type chromaGetRequest struct {
	IDs     []string       `json:"ids,omitempty"`
	Where   map[string]any `json:"where,omitempty"`
	Include []string       `json:"include,omitempty"`
}

// chromaGetResponse is the response from getting records.
type chromaGetResponse struct {
	IDs       []string         `json:"ids"`
	Documents []string         `json:"documents"`
	Metadatas []map[string]any `json:"metadatas"`
}

// chromaDeleteRequest is the request body for deleting records.
type chromaDeleteRequest struct {
	IDs []string `json:"ids"`
}

// metadataToMap flattens Metadata into the scalar map Chroma stores.
func metadataToMap(m vector.Metadata) map[string]any {
	return map[string]any{
		"source":       m.Source,
		"filename":     m.Filename,
		"page_number":  m.PageNumber,
		"chunk_index":  m.ChunkIndex,
		"total_chunks": m.TotalChunks,
	}
}

// metadataFromMap rebuilds Metadata from Chroma's JSON map. Numbers arrive
// as float64; missing keys stay at their zero values, which retrieval later
// filters on via Metadata.Complete.
func metadataFromMap(m map[string]any) vector.Metadata {
	if m == nil {
		return vector.Metadata{}
	}

	md := vector.Metadata{}
	if s, ok := m["source"].(string); ok {
		md.Source = s
	}
	if s, ok := m["filename"].(string); ok {
		md.Filename = s
	}
	md.PageNumber = intFromAny(m["page_number"])
	md.ChunkIndex = intFromAny(m["chunk_index"])
	md.TotalChunks = intFromAny(m["total_chunks"])
	return md
}

func intFromAny(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
