package testutils

import (
	"context"
	"sync"

	"github.com/envectorhq/envector-mcp/pkg/eventstream"
)

// MockPublisher records published invocation events for assertions.
type MockPublisher struct {
	mu     sync.Mutex
	Events []*eventstream.ToolInvokedEvent
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishInvocation(_ context.Context, event *eventstream.ToolInvokedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockPublisher) Published() []*eventstream.ToolInvokedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.ToolInvokedEvent(nil), m.Events...)
}

func (m *MockPublisher) Close() error {
	return nil
}
