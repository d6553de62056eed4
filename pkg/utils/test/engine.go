package testutils

import (
	"context"
	"sync"

	"github.com/envectorhq/envector-mcp/pkg/canon"
	"github.com/envectorhq/envector-mcp/pkg/engine"
)

// MockEngine is a call-counting fake engine. Tests use the counters to
// verify that validation faults fire before any engine interaction, and the
// Err/Panic hooks to exercise the facade's fault handling.
type MockEngine struct {
	mu sync.Mutex

	// Calls counts invocations per operation name.
	Calls map[string]int

	// Results holds the raw value returned per operation name.
	Results map[string]any

	// Err, when set, is returned by every operation.
	Err error

	// PanicWith, when set, is the value every operation panics with.
	PanicWith any

	// Inserted captures the arguments of the last Insert call.
	Inserted struct {
		IndexName string
		Vectors   canon.Batch
		Metadata  []any
	}

	// Searched captures the arguments of the last Search call.
	Searched struct {
		IndexName string
		Query     canon.Batch
		TopK      int
	}
}

func NewMockEngine() *MockEngine {
	return &MockEngine{
		Calls:   make(map[string]int),
		Results: make(map[string]any),
	}
}

// TotalCalls returns the number of engine calls observed across all
// operations.
func (m *MockEngine) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, n := range m.Calls {
		total += n
	}
	return total
}

func (m *MockEngine) record(op string) (any, error) {
	m.mu.Lock()
	m.Calls[op]++
	result := m.Results[op]
	err := m.Err
	panicWith := m.PanicWith
	m.mu.Unlock()

	if panicWith != nil {
		panic(panicWith)
	}
	return result, err
}

func (m *MockEngine) CreateIndex(_ context.Context, _ engine.IndexDescriptor) (any, error) {
	return m.record("create_index")
}

func (m *MockEngine) ListIndexes(_ context.Context) (any, error) {
	return m.record("list_indexes")
}

func (m *MockEngine) DescribeIndex(_ context.Context, _ string) (any, error) {
	return m.record("describe_index")
}

func (m *MockEngine) Insert(_ context.Context, indexName string, vectors canon.Batch, metadata []any) (any, error) {
	m.mu.Lock()
	m.Inserted.IndexName = indexName
	m.Inserted.Vectors = vectors
	m.Inserted.Metadata = metadata
	m.mu.Unlock()
	return m.record("insert")
}

func (m *MockEngine) Search(_ context.Context, indexName string, query canon.Batch, topK int) (any, error) {
	m.mu.Lock()
	m.Searched.IndexName = indexName
	m.Searched.Query = query
	m.Searched.TopK = topK
	m.mu.Unlock()
	return m.record("search")
}

func (m *MockEngine) Close() error {
	return nil
}

// Ensure MockEngine implements engine.Engine
var _ engine.Engine = (*MockEngine)(nil)
