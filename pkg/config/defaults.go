package config

const (
	defaultAPIListen = ":8080"

	defaultEngineProvider = "qdrant"
	defaultEngineHost     = "localhost"
	defaultEnginePort     = 6334
	defaultSQLitePath     = "envector.db"

	defaultEmbeddingTarget = "http://localhost:11434"
	defaultEmbeddingModel  = "embeddinggemma"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Engine: EngineConfig{
			Provider:   defaultEngineProvider,
			Host:       defaultEngineHost,
			Port:       defaultEnginePort,
			SQLitePath: defaultSQLitePath,
		},
		Embedding: EmbeddingConfig{
			Target: defaultEmbeddingTarget,
			Model:  defaultEmbeddingModel,
		},
	}
}
