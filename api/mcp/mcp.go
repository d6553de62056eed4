// Package mcp provides the MCP (Model Context Protocol) server exposing the
// vector engine tools.
//
// The dispatcher layer owns the tool boundary discipline: caller input is
// normalized before the engine sees it, validation faults surface as
// protocol-level tool errors, and every engine outcome, success or fault,
// is returned as an {ok, results|error} envelope.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/envectorhq/envector-mcp/pkg/canon"
	"github.com/envectorhq/envector-mcp/pkg/embeddings"
	"github.com/envectorhq/envector-mcp/pkg/engine"
	"github.com/envectorhq/envector-mcp/pkg/eventstream"
	"github.com/envectorhq/envector-mcp/pkg/eventstream/nop"
	"github.com/envectorhq/envector-mcp/pkg/utils"
)

type Config struct {
	// Facade wraps the vector engine with the result-envelope discipline.
	Facade *engine.Facade

	// Embedder converts free-text queries and metadata-only inserts into
	// vectors. Optional; without it those paths fault with a clear message.
	Embedder embeddings.Embedder

	// Publisher receives tool-invocation audit events. Optional; defaults
	// to a no-op publisher.
	Publisher eventstream.Publisher

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the vector engine tools.
func NewServer(c Config) (*Server, error) {
	if c.Facade == nil {
		return nil, errors.New("engine facade is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if c.Publisher == nil {
		c.Publisher = nop.NewPublisher()
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "envector",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        createIndexToolName,
		Description: createIndexDescription,
	}, s.handleCreateIndex)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        indexListToolName,
		Description: indexListDescription,
	}, s.handleIndexList)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        indexInfoToolName,
		Description: indexInfoDescription,
	}, s.handleIndexInfo)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        insertToolName,
		Description: insertDescription,
	}, s.handleInsert)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchToolName,
		Description: searchDescription,
	}, s.handleSearch)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// finish serializes the envelope into the tool result and emits the audit
// event. Per MCP spec: tools returning structured content should also return
// serialized JSON in a TextContent block for backwards compatibility.
func (s *Server) finish(ctx context.Context, tool, indexName string, start time.Time, res engine.Result) (*mcp.CallToolResult, engine.Result, error) {
	s.publish(ctx, tool, indexName, start, res.OK, res.Error)

	jsonBytes, err := json.Marshal(res)
	if err != nil {
		s.config.Logger.Error("failed to marshal tool result", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize result: %v", err)},
			},
		}, engine.Result{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, res, nil
}

// fault rejects the invocation before any engine interaction. Validation
// faults are protocol-level tool errors, never {ok:false} envelopes.
func (s *Server) fault(ctx context.Context, tool, indexName string, start time.Time, err error) (*mcp.CallToolResult, engine.Result, error) {
	s.config.Logger.Debug("tool input rejected",
		zap.String("tool", tool),
		zap.Error(err),
	)
	s.publish(ctx, tool, indexName, start, false, err.Error())
	return nil, engine.Result{}, err
}

// publish emits the audit event. Fire-and-forget: a publish failure is
// logged, never surfaced to the tool caller.
func (s *Server) publish(ctx context.Context, tool, indexName string, start time.Time, ok bool, errMsg string) {
	event := &eventstream.ToolInvokedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeToolInvoked,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Tool:          tool,
		IndexName:     indexName,
		DurationMs:    time.Since(start).Milliseconds(),
		OK:            ok,
		Error:         errMsg,
	}

	if err := s.config.Publisher.PublishInvocation(ctx, event); err != nil {
		s.config.Logger.Warn("failed to publish invocation event",
			zap.String("tool", tool),
			zap.Error(err),
		)
	}
}

// embedTexts runs the batch embedding path and converts the result into the
// canonical batch shape.
func (s *Server) embedTexts(ctx context.Context, texts []string) (canon.Batch, error) {
	vecs, err := s.config.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d texts: %w", len(texts), err)
	}

	batch := make(canon.Batch, len(vecs))
	for i, vec := range vecs {
		converted := make(canon.Vector, len(vec))
		for j, f := range vec {
			converted[j] = float64(f)
		}
		batch[i] = converted
	}
	return batch, nil
}
