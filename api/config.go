// Package api provides the HTTP API server for uploading, querying and
// deleting documents.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// UploadDir is the local directory uploaded PDFs are stored in. It is
	// served read-only under the public upload path so query results can
	// deep-link into source pages.
	UploadDir string
}
