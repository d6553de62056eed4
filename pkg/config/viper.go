package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig() and binds environment variables
// with the ENVECTOR_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindPFlag at the command site)
//  2. Environment variables (ENVECTOR_API_LISTEN, ENVECTOR_ENGINE_HOST, etc.)
//  3. Defaults from NewDefaultConfig()
func InitViper() *viper.Viper {
	v := viper.New()

	setViperDefaults(v)

	v.SetEnvPrefix("ENVECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// FromViper unmarshals the resolved settings into a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return c, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Engine
	v.SetDefault("engine.provider", d.Engine.Provider)
	v.SetDefault("engine.host", d.Engine.Host)
	v.SetDefault("engine.port", d.Engine.Port)
	v.SetDefault("engine.api_key", d.Engine.APIKey)
	v.SetDefault("engine.use_tls", d.Engine.UseTLS)
	v.SetDefault("engine.sqlite_path", d.Engine.SQLitePath)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.api_key", d.Embedding.APIKey)

	// Events
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
