package notify

import (
	"context"

	"jobportal/internal/queue"
)

// Publisher delivers one outbox event to its consumers.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// InlinePublisher materializes notifications in the dispatcher's own process.
type InlinePublisher struct {
	materializer *Materializer
}

// NewInlinePublisher creates a publisher that skips the broker.
func NewInlinePublisher(m *Materializer) *InlinePublisher {
	return &InlinePublisher{materializer: m}
}

// Publish materializes ev directly.
func (p *InlinePublisher) Publish(ctx context.Context, ev queue.Event) error {
	return p.materializer.Materialize(ctx, ev)
}

var (
	_ Publisher = (*InlinePublisher)(nil)
	_ Publisher = (*queue.AMQPPublisher)(nil)
	_ Publisher = (*queue.KafkaPublisher)(nil)
)
