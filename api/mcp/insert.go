package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/envectorhq/envector-mcp/pkg/canon"
	"github.com/envectorhq/envector-mcp/pkg/engine"
)

var (
	insertToolName    = "insert"
	insertDescription = "Insert vectors into a named index. Accepts a flat vector, a batch of vectors, or a JSON-encoded string of either; optional metadata aligns 1:1 with the batch. With an embedder configured, metadata-only inserts embed each item's text."
)

// InsertInput represents the input arguments for the insert tool.
//
// Vectors and Metadata are deliberately untyped: callers send flat arrays,
// nested arrays, or JSON-encoded strings, and normalization reduces them to
// canonical shapes.
type InsertInput struct {
	IndexName string `json:"index_name" jsonschema:"name of the target index"`
	Vectors   any    `json:"vectors,omitempty" jsonschema:"vector data: array of floats, array of arrays, or a JSON-encoded string of either"`
	Metadata  any    `json:"metadata,omitempty" jsonschema:"optional metadata, one item per vector"`
}

func (s *Server) handleInsert(ctx context.Context, req *mcp.CallToolRequest, input InsertInput) (*mcp.CallToolResult, engine.Result, error) {
	start := time.Now()

	if input.IndexName == "" {
		return s.fault(ctx, insertToolName, "", start,
			canon.NewValidationError("index_name is required"))
	}
	if input.Vectors == nil && input.Metadata == nil {
		return s.fault(ctx, insertToolName, input.IndexName, start,
			canon.NewValidationError("insert requires vectors, metadata, or both"))
	}

	metadata := canon.NormalizeMetadata(input.Metadata)

	var vectors canon.Batch
	if input.Vectors != nil {
		var err error
		vectors, err = canon.NormalizeBatch(input.Vectors)
		if err != nil {
			return s.fault(ctx, insertToolName, input.IndexName, start, err)
		}
	} else {
		// Metadata-only insert: derive the vectors by embedding each item.
		if s.config.Embedder == nil {
			return s.fault(ctx, insertToolName, input.IndexName, start,
				canon.NewValidationError("insert without vectors requires an embedder, and none is configured"))
		}

		texts, err := metadataTexts(metadata)
		if err != nil {
			return s.fault(ctx, insertToolName, input.IndexName, start, err)
		}

		vectors, err = s.embedTexts(ctx, texts)
		if err != nil {
			return s.fault(ctx, insertToolName, input.IndexName, start, err)
		}
	}

	if metadata != nil && len(metadata) != len(vectors) {
		return s.fault(ctx, insertToolName, input.IndexName, start,
			canon.NewValidationError("metadata length %d does not match vector batch length %d",
				len(metadata), len(vectors)))
	}

	res := s.config.Facade.CallInsert(ctx, input.IndexName, vectors, metadata)
	return s.finish(ctx, insertToolName, input.IndexName, start, res)
}

// metadataTexts renders metadata items as embeddable text. Strings pass
// through; anything else is JSON-encoded.
func metadataTexts(metadata []any) ([]string, error) {
	texts := make([]string, len(metadata))
	for i, item := range metadata {
		if s, ok := item.(string); ok {
			texts[i] = s
			continue
		}
		encoded, err := json.Marshal(item)
		if err != nil {
			return nil, canon.NewValidationError("metadata item %d is not embeddable: %v", i, err)
		}
		texts[i] = string(encoded)
	}
	return texts, nil
}
