// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/envectorhq/envector-mcp/pkg/embeddings"
	"github.com/envectorhq/envector-mcp/pkg/embeddings/ollama"
	"github.com/envectorhq/envector-mcp/pkg/embeddings/openai"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
}

// NewEmbedder builds the configured embedding collaborator. Provider "none"
// (or empty) returns nil without error: the server then runs without an
// embedder, and the tools that need one reject free-text input.
func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "", "none":
		return nil, nil
	case "ollama":
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case "openai":
		return openai.NewEmbedder(openai.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
			APIKey:  o.APIKey,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
