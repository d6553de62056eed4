package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/envectorhq/envector-mcp/pkg/canon"
	"github.com/envectorhq/envector-mcp/pkg/sanitize"
)

// Facade wraps every engine call with the result-envelope discipline: on
// success the raw result is sanitized into {ok:true, results}, and any fault
// from the engine — error or panic — becomes {ok:false, error}. Engine faults
// never escape to a caller; the tool boundary always returns a well-formed
// envelope.
//
// The Facade owns the long-lived engine handle. It is created once at
// process start, shared read-only by all tool invocations, and torn down at
// shutdown via Close.
type Facade struct {
	engine Engine
	logger *zap.Logger
}

// NewFacade creates a Facade around the given engine.
func NewFacade(e Engine, logger *zap.Logger) (*Facade, error) {
	if e == nil {
		return nil, errors.New("engine is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	return &Facade{
		engine: e,
		logger: logger,
	}, nil
}

// CallCreateIndex creates an index and returns the outcome envelope.
func (f *Facade) CallCreateIndex(ctx context.Context, desc IndexDescriptor) Result {
	return f.call("create_index", func() (any, error) {
		return f.engine.CreateIndex(ctx, desc)
	})
}

// CallListIndexes returns the index listing envelope.
func (f *Facade) CallListIndexes(ctx context.Context) Result {
	return f.call("list_indexes", func() (any, error) {
		return f.engine.ListIndexes(ctx)
	})
}

// CallDescribeIndex returns the index description envelope.
func (f *Facade) CallDescribeIndex(ctx context.Context, name string) Result {
	return f.call("describe_index", func() (any, error) {
		return f.engine.DescribeIndex(ctx, name)
	})
}

// CallInsert inserts a vector batch with optional aligned metadata and
// returns the outcome envelope.
func (f *Facade) CallInsert(ctx context.Context, indexName string, vectors canon.Batch, metadata []any) Result {
	return f.call("insert", func() (any, error) {
		return f.engine.Insert(ctx, indexName, vectors, metadata)
	})
}

// CallSearch runs a topK search and returns the outcome envelope.
func (f *Facade) CallSearch(ctx context.Context, indexName string, query canon.Batch, topK int) Result {
	return f.call("search", func() (any, error) {
		return f.engine.Search(ctx, indexName, query, topK)
	})
}

// Close releases the engine handle.
func (f *Facade) Close() error {
	return f.engine.Close()
}

// call runs one engine operation under the envelope discipline.
func (f *Facade) call(op string, fn func() (any, error)) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("engine call panicked",
				zap.String("op", op),
				zap.Any("panic", r),
			)
			res = Fail(fmt.Errorf("%s: engine panic: %v", op, r))
		}
	}()

	raw, err := fn()
	if err != nil {
		f.logger.Warn("engine call failed",
			zap.String("op", op),
			zap.Error(err),
		)
		return Fail(err)
	}

	return OK(sanitize.Value(raw))
}
