package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/envectorhq/envector-mcp/pkg/canon"
	"github.com/envectorhq/envector-mcp/pkg/engine"
)

var (
	searchToolName    = "search"
	searchDescription = "Search a named index for the nearest vectors. The query is a vector, a batch of vectors, a JSON-encoded string of either, or free text to embed when an embedder is configured."
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	IndexName string `json:"index_name" jsonschema:"name of the index to search"`
	Query     any    `json:"query" jsonschema:"query vector(s), a JSON-encoded string of vectors, or free text"`
	TopK      int    `json:"topk" jsonschema:"number of results per query"`
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, engine.Result, error) {
	start := time.Now()

	if input.IndexName == "" {
		return s.fault(ctx, searchToolName, "", start,
			canon.NewValidationError("index_name is required"))
	}
	if input.Query == nil {
		return s.fault(ctx, searchToolName, input.IndexName, start,
			canon.NewValidationError("query is required"))
	}

	if input.TopK <= 0 {
		return s.fault(ctx, searchToolName, input.IndexName, start,
			canon.NewValidationError("topk must be a positive integer, got %d", input.TopK))
	}

	query, err := s.resolveQuery(ctx, input.Query)
	if err != nil {
		return s.fault(ctx, searchToolName, input.IndexName, start, err)
	}

	s.config.Logger.Debug("MCP search request",
		zap.String("index", input.IndexName),
		zap.Int("queries", len(query)),
		zap.Int("topK", input.TopK),
	)

	res := s.config.Facade.CallSearch(ctx, input.IndexName, query, input.TopK)
	return s.finish(ctx, searchToolName, input.IndexName, start, res)
}

// resolveQuery reduces the raw query to a canonical batch. Strings are tried
// as JSON-encoded vectors first; a string that does not decode to vectors is
// treated as free text and embedded.
func (s *Server) resolveQuery(ctx context.Context, raw any) (canon.Batch, error) {
	text, isString := raw.(string)
	if !isString {
		return canon.NormalizeBatch(raw)
	}

	if batch, err := canon.NormalizeBatch(text); err == nil {
		return batch, nil
	}

	if s.config.Embedder == nil {
		return nil, canon.NewValidationError(
			"free-text query %q requires an embedder, and none is configured: supply a numeric array instead", text)
	}

	vec, err := s.config.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, canon.NewValidationError("embedding query %q: %v", text, err)
	}

	converted := make(canon.Vector, len(vec))
	for i, f := range vec {
		converted[i] = float64(f)
	}
	return canon.Batch{converted}, nil
}
