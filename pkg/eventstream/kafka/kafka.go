// Package kafka implements the eventstream Publisher on a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/envectorhq/envector-mcp/pkg/eventstream"
)

// DefaultTopic is the topic invocation events are written to when none is
// configured.
const DefaultTopic = "envector.tool.invocations"

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic is the destination topic. Defaults to DefaultTopic if empty.
	Topic string

	// Logger is the configured zap logger.
	Logger *zap.Logger
}

// Publisher writes tool-invocation events to a Kafka topic.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPublisher creates a Kafka-backed eventstream publisher.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}
	if c.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		// Audit events are advisory; don't hold tool callers hostage to
		// broker acks.
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}

	return &Publisher{
		writer: writer,
		logger: c.Logger,
	}, nil
}

// PublishInvocation writes one event, keyed by tool name so per-tool
// ordering is preserved within a partition.
func (p *Publisher) PublishInvocation(ctx context.Context, event *eventstream.ToolInvokedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling invocation event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Tool),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("writing invocation event: %w", err)
	}

	p.logger.Debug("published invocation event",
		zap.String("event_id", event.EventID),
		zap.String("tool", event.Tool),
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
