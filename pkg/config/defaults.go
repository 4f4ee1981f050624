package config

const (
	// CurrentV is the currently supported config version.
	CurrentV = 0

	defaultAPIListen = ":8080"
	defaultUploadDir = "./static/documents"

	defaultVectorProvider = "memory"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultRewriterProvider = "nop"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "folio.documents"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Storage: StorageConfig{
			UploadDir: defaultUploadDir,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Rewriter: RewriterConfig{
			Provider: defaultRewriterProvider,
			Target:   defaultEmbeddingTarget,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
