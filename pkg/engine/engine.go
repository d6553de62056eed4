// Package engine defines the boundary to the external vector engine: the
// narrow call interface, the index descriptor vocabulary, and the Facade
// that converts engine faults into well-formed result envelopes.
package engine

import (
	"context"
	"errors"

	"github.com/envectorhq/envector-mcp/pkg/canon"
)

// Supported index strategies.
const (
	// IndexTypeFlat is an exact scan index.
	IndexTypeFlat = "FLAT"

	// IndexTypeIVFFlat is a clustered approximate index. Requires nlist
	// and default_nprobe.
	IndexTypeIVFFlat = "IVF_FLAT"
)

var (
	// ErrIndexNotFound is returned when the named index does not exist.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexExists is returned when creating an index that already exists.
	ErrIndexExists = errors.New("index already exists")

	// ErrConnection is returned when the engine connection fails.
	ErrConnection = errors.New("engine connection failed")
)

// IndexParams selects the indexing strategy for a new index.
type IndexParams struct {
	IndexType     string `json:"index_type"`
	Nlist         int    `json:"nlist,omitempty"`
	DefaultNprobe int    `json:"default_nprobe,omitempty"`
}

// IndexDescriptor describes a named index with fixed dimensionality.
type IndexDescriptor struct {
	Name        string      `json:"name"`
	Dim         int         `json:"dim"`
	IndexParams IndexParams `json:"index_params"`
}

// Validate checks the descriptor invariants. The index type determines which
// tuning parameters are required. Violations are validation faults raised
// before any engine interaction.
func (d IndexDescriptor) Validate() error {
	if d.Name == "" {
		return canon.NewValidationError("index_name is required")
	}
	if d.Dim <= 0 {
		return canon.NewValidationError("dim must be a positive integer, got %d", d.Dim)
	}

	switch d.IndexParams.IndexType {
	case IndexTypeFlat:
		return nil
	case IndexTypeIVFFlat:
		if d.IndexParams.Nlist <= 0 {
			return canon.NewValidationError("index_type %s requires nlist", IndexTypeIVFFlat)
		}
		if d.IndexParams.DefaultNprobe <= 0 {
			return canon.NewValidationError("index_type %s requires default_nprobe", IndexTypeIVFFlat)
		}
		return nil
	default:
		return canon.NewValidationError("unsupported index_type %q: must be %s or %s",
			d.IndexParams.IndexType, IndexTypeFlat, IndexTypeIVFFlat)
	}
}

// Engine is the call interface to the external vector engine. Implementations
// own the connection; results are raw SDK values the Facade sanitizes before
// they reach a caller.
type Engine interface {
	// CreateIndex creates a named index with the given dimensionality and
	// indexing strategy.
	CreateIndex(ctx context.Context, desc IndexDescriptor) (any, error)

	// ListIndexes returns the names of all indexes.
	ListIndexes(ctx context.Context) (any, error)

	// DescribeIndex returns engine-side details for the named index.
	DescribeIndex(ctx context.Context, name string) (any, error)

	// Insert stores a batch of vectors with optional per-vector metadata.
	// When metadata is non-nil it aligns 1:1 with the batch.
	Insert(ctx context.Context, indexName string, vectors canon.Batch, metadata []any) (any, error)

	// Search returns the topK nearest results for each query vector.
	Search(ctx context.Context, indexName string, query canon.Batch, topK int) (any, error)

	// Close releases the engine connection.
	Close() error
}
