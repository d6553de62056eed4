package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/envectorhq/envector-mcp/pkg/canon"
	"github.com/envectorhq/envector-mcp/pkg/engine"
)

var (
	createIndexToolName    = "create_index"
	createIndexDescription = "Create a named vector index with a fixed dimensionality. index_type is FLAT (exact scan) or IVF_FLAT (clustered approximate, requires nlist and default_nprobe)."

	indexListToolName    = "get_index_list"
	indexListDescription = "List the names of all vector indexes."

	indexInfoToolName    = "get_index_info"
	indexInfoDescription = "Describe a named vector index: dimensionality, index parameters, and engine-side details."
)

// CreateIndexInput represents the input arguments for the create_index tool.
type CreateIndexInput struct {
	IndexName   string             `json:"index_name" jsonschema:"name of the index to create"`
	Dim         int                `json:"dim" jsonschema:"vector dimensionality"`
	IndexParams engine.IndexParams `json:"index_params" jsonschema:"index strategy: index_type FLAT or IVF_FLAT; IVF_FLAT requires nlist and default_nprobe"`
}

// IndexInfoInput represents the input arguments for the get_index_info tool.
type IndexInfoInput struct {
	IndexName string `json:"index_name" jsonschema:"name of the index to describe"`
}

// IndexListInput is empty: get_index_list takes no arguments.
type IndexListInput struct{}

func (s *Server) handleCreateIndex(ctx context.Context, req *mcp.CallToolRequest, input CreateIndexInput) (*mcp.CallToolResult, engine.Result, error) {
	start := time.Now()

	params := input.IndexParams
	if params.IndexType == "" {
		params.IndexType = engine.IndexTypeFlat
	}

	desc := engine.IndexDescriptor{
		Name:        input.IndexName,
		Dim:         input.Dim,
		IndexParams: params,
	}
	if err := desc.Validate(); err != nil {
		return s.fault(ctx, createIndexToolName, input.IndexName, start, err)
	}

	res := s.config.Facade.CallCreateIndex(ctx, desc)
	return s.finish(ctx, createIndexToolName, input.IndexName, start, res)
}

func (s *Server) handleIndexList(ctx context.Context, req *mcp.CallToolRequest, input IndexListInput) (*mcp.CallToolResult, engine.Result, error) {
	start := time.Now()

	res := s.config.Facade.CallListIndexes(ctx)
	return s.finish(ctx, indexListToolName, "", start, res)
}

func (s *Server) handleIndexInfo(ctx context.Context, req *mcp.CallToolRequest, input IndexInfoInput) (*mcp.CallToolResult, engine.Result, error) {
	start := time.Now()

	if input.IndexName == "" {
		return s.fault(ctx, indexInfoToolName, "", start,
			canon.NewValidationError("index_name is required"))
	}

	res := s.config.Facade.CallDescribeIndex(ctx, input.IndexName)
	return s.finish(ctx, indexInfoToolName, input.IndexName, start, res)
}
