package events

import (
	"context"
	"sync"

	"github.com/shirapay/shirapay/internal/model"
	"github.com/shirapay/shirapay/pkg/logger"
)

// Publisher emits transaction status change events. The service layer treats
// publishing as best-effort; a lost event never rolls back a state change.
type Publisher interface {
	PublishStatusEvent(ctx context.Context, event model.StatusEvent) error
}

// StreamPublisher publishes status events onto the Redis event stream.
type StreamPublisher struct {
	stream *Stream
}

func NewStreamPublisher(stream *Stream) *StreamPublisher {
	return &StreamPublisher{stream: stream}
}

func (p *StreamPublisher) PublishStatusEvent(ctx context.Context, event model.StatusEvent) error {
	_, err := p.stream.PublishJSON(ctx, event, map[string]string{
		"transaction_id": event.TransactionID,
		"to":             string(event.To),
	})
	if err != nil {
		logger.Warn("failed to publish status event",
			"transaction_id", event.TransactionID,
			"from", event.From,
			"to", event.To,
			"error", err)
	}
	return err
}

// MemoryPublisher collects events in memory. Test double.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []model.StatusEvent
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) PublishStatusEvent(ctx context.Context, event model.StatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *MemoryPublisher) Events() []model.StatusEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.StatusEvent, len(p.events))
	copy(out, p.events)
	return out
}
