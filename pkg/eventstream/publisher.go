// Package eventstream publishes tool-invocation audit events to an event
// stream backend. Publishing is fire-and-forget: a failed publish is the
// publisher's problem to report, never the tool caller's.
package eventstream

import "context"

// Publisher publishes tool-invocation events to an event stream backend.
type Publisher interface {
	PublishInvocation(ctx context.Context, event *ToolInvokedEvent) error
	Close() error
}
