package config

// Config is the full server configuration assembled from defaults,
// environment variables, and CLI flags.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Events    EventsConfig    `mapstructure:"events"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Listen string `mapstructure:"listen"`
}

// EngineConfig holds vector engine connection settings.
type EngineConfig struct {
	// Provider selects the engine backend: "qdrant" or "sqlitevec".
	Provider string `mapstructure:"provider"`

	// Host and Port locate a remote engine (qdrant gRPC).
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// APIKey authenticates against a secured remote engine.
	APIKey string `mapstructure:"api_key"`

	// UseTLS enables transport security to the remote engine.
	UseTLS bool `mapstructure:"use_tls"`

	// SQLitePath is the database path for the local sqlitevec engine.
	SQLitePath string `mapstructure:"sqlite_path"`
}

// EmbeddingConfig holds embedding provider settings. An empty provider
// disables the embedding paths.
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"`
	Target   string `mapstructure:"target"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
}

// EventsConfig holds audit event stream settings. Empty brokers disable
// publishing.
type EventsConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}
