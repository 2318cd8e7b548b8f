package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shirapay/shirapay/pkg/logger"
	"github.com/shirapay/shirapay/pkg/redis"
)

// Message is a single stream entry handed to a consumer.
type Message struct {
	ID        string
	Data      []byte
	Metadata  map[string]string
	Timestamp time.Time
	Attempts  int
}

// Handler processes a message. Returning nil acks the entry; returning an
// error leaves it pending so another consumer can reclaim it.
type Handler func(ctx context.Context, msg *Message) error

type StreamConfig struct {
	Name              string
	ConsumerGroup     string
	ConsumerName      string
	MaxDeliveries     int
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
	BatchSize         int64
	MaxLen            int64
}

// Stream is a consumer-group backed event stream over Redis. Status change
// events are appended by the API process and fanned out to notifier
// consumers; delivery is at-least-once.
type Stream struct {
	adapter redis.RedisAdapter
	config  StreamConfig
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewStream(adapter redis.RedisAdapter, config StreamConfig) (*Stream, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	if config.ConsumerGroup == "" {
		config.ConsumerGroup = "default-group"
	}
	if config.ConsumerName == "" {
		config.ConsumerName = fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}
	if config.MaxDeliveries == 0 {
		config.MaxDeliveries = 5
	}
	if config.VisibilityTimeout == 0 {
		config.VisibilityTimeout = 30 * time.Second
	}
	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Stream{
		adapter: adapter,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
	}

	// group may already exist from a previous run
	_ = s.adapter.XGroupCreateMkStream(s.config.Name, s.config.ConsumerGroup, "0")

	return s, nil
}

// Publish appends an entry to the stream.
func (s *Stream) Publish(ctx context.Context, data []byte, metadata map[string]string) (string, error) {
	values := map[string]interface{}{
		"data":      string(data),
		"timestamp": time.Now().Unix(),
		"attempts":  0,
	}
	for k, v := range metadata {
		values["meta_"+k] = v
	}

	id, err := s.adapter.XAdd(s.config.Name, values)
	if err != nil {
		return "", fmt.Errorf("failed to publish event: %w", err)
	}

	if s.config.MaxLen > 0 {
		_ = s.adapter.XTrimApprox(s.config.Name, s.config.MaxLen)
	}

	return id, nil
}

// PublishJSON publishes a JSON-encoded entry.
func (s *Stream) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return s.Publish(ctx, jsonData, metadata)
}

// Consume starts the consumer loop in a goroutine.
func (s *Stream) Consume(handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}

	s.handler = handler
	s.wg.Add(1)

	go s.consumeLoop()

	return nil
}

func (s *Stream) consumeLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.processEntries()
			s.claimStuckEntries()
		}
	}
}

func (s *Stream) processEntries() {
	messages, err := s.adapter.XReadGroup(
		s.config.ConsumerGroup,
		s.config.ConsumerName,
		s.config.Name,
		">",
		s.config.BatchSize,
	)
	if err != nil {
		if err != redis.NilError {
			logger.Warn("failed to read from event stream", "stream", s.config.Name, "error", err)
		}
		return
	}

	for _, streamMsg := range messages {
		s.handleEntry(toMessage(streamMsg))
	}
}

func (s *Stream) claimStuckEntries() {
	pending, err := s.adapter.XPending(s.config.Name, s.config.ConsumerGroup)
	if err != nil || pending == nil || pending.Count == 0 {
		return
	}

	pendingExt, err := s.adapter.XPendingExt(s.config.Name, s.config.ConsumerGroup, "-", "+", 100)
	if err != nil || len(pendingExt) == 0 {
		return
	}

	var idsToReclaim []string
	for _, msg := range pendingExt {
		if msg.Idle >= s.config.VisibilityTimeout {
			idsToReclaim = append(idsToReclaim, msg.ID)
		}
	}
	if len(idsToReclaim) == 0 {
		return
	}

	messages, err := s.adapter.XClaim(
		s.config.Name,
		s.config.ConsumerGroup,
		s.config.ConsumerName,
		s.config.VisibilityTimeout,
		idsToReclaim...,
	)
	if err != nil {
		return
	}

	for _, streamMsg := range messages {
		msg := toMessage(streamMsg)
		msg.Attempts++
		s.handleEntry(msg)
	}
}

func (s *Stream) handleEntry(msg *Message) {
	// a poison entry is acked away rather than reclaimed forever
	if msg.Attempts >= s.config.MaxDeliveries {
		logger.Error("dropping event after too many deliveries",
			"stream", s.config.Name, "id", msg.ID, "attempts", msg.Attempts)
		_ = s.ack(msg.ID)
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.config.VisibilityTimeout)
	defer cancel()

	if err := s.handler(ctx, msg); err != nil {
		// not acked; stays pending for reclaim
		return
	}

	_ = s.ack(msg.ID)
}

func (s *Stream) ack(id string) error {
	return s.adapter.XAck(s.config.Name, s.config.ConsumerGroup, id)
}

// Len reports how many entries the stream currently holds.
func (s *Stream) Len() (int64, error) {
	return s.adapter.XLen(s.config.Name)
}

func (s *Stream) Stop(timeout time.Duration) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for stream consumer to stop")
	}
}

func toMessage(streamMsg redis.StreamMessage) *Message {
	msg := &Message{
		ID:       streamMsg.ID,
		Metadata: make(map[string]string),
	}

	for k, v := range streamMsg.Values {
		switch k {
		case "data":
			if data, ok := v.(string); ok {
				msg.Data = []byte(data)
			}
		case "timestamp":
			if ts, ok := v.(string); ok {
				var unix int64
				if _, err := fmt.Sscanf(ts, "%d", &unix); err == nil {
					msg.Timestamp = time.Unix(unix, 0)
				}
			}
		case "attempts":
			if attempts, ok := v.(string); ok {
				fmt.Sscanf(attempts, "%d", &msg.Attempts)
			}
		default:
			if len(k) > 5 && k[:5] == "meta_" {
				if val, ok := v.(string); ok {
					msg.Metadata[k[5:]] = val
				}
			}
		}
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	return msg
}
