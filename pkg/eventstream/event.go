package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeToolInvoked is emitted after a tool invocation completes,
	// whether the engine reported success or failure.
	EventTypeToolInvoked = "envector.tool.invoked"
)

// ToolInvokedEvent is a transport-neutral audit record for one tool call.
type ToolInvokedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	Tool          string    `json:"tool"`
	IndexName     string    `json:"index_name,omitempty"`
	DurationMs    int64     `json:"duration_ms"`
	OK            bool      `json:"ok"`
	Error         string    `json:"error,omitempty"`
}
