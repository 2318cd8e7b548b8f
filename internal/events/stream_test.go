package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shirapay/shirapay/internal/model"
	"github.com/shirapay/shirapay/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	return mr, redis.NewAdapterWithClient(client, "")
}

func TestStream_PublishAndConsume(t *testing.T) {
	_, adapter := setupTestRedis(t)

	stream, err := NewStream(adapter, StreamConfig{
		Name:              "transactions:events",
		ConsumerGroup:     "notifier",
		ConsumerName:      "test-consumer",
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      50 * time.Millisecond,
		BatchSize:         10,
		MaxLen:            1000,
	})
	require.NoError(t, err)
	defer stream.Stop(time.Second)

	event := model.StatusEvent{
		TransactionID:  "txn-1",
		OrganizationID: "org-1",
		From:           model.StatusPaymentInProgress,
		To:             model.StatusPaid,
		OccurredAt:     time.Now().UTC(),
	}

	publisher := NewStreamPublisher(stream)
	require.NoError(t, publisher.PublishStatusEvent(context.Background(), event))

	received := make(chan model.StatusEvent, 1)
	err = stream.Consume(func(ctx context.Context, msg *Message) error {
		var got model.StatusEvent
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			return err
		}
		assert.Equal(t, "txn-1", msg.Metadata["transaction_id"])
		received <- got
		return nil
	})
	require.NoError(t, err)

	select {
	case got := <-received:
		assert.Equal(t, "txn-1", got.TransactionID)
		assert.Equal(t, model.StatusPaid, got.To)
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}
}

func TestStream_FailedHandlerLeavesEntryPending(t *testing.T) {
	_, adapter := setupTestRedis(t)

	stream, err := NewStream(adapter, StreamConfig{
		Name:          "transactions:events",
		ConsumerGroup: "notifier",
		ConsumerName:  "test-consumer",
		PollInterval:  50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer stream.Stop(time.Second)

	_, err = stream.Publish(context.Background(), []byte("payload"), nil)
	require.NoError(t, err)

	handled := make(chan struct{}, 1)
	err = stream.Consume(func(ctx context.Context, msg *Message) error {
		handled <- struct{}{}
		return assert.AnError
	})
	require.NoError(t, err)

	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("entry not delivered")
	}
	require.NoError(t, stream.Stop(time.Second))

	pending, err := adapter.XPending("transactions:events", "notifier")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)
}

func TestMemoryPublisher(t *testing.T) {
	p := NewMemoryPublisher()
	require.NoError(t, p.PublishStatusEvent(context.Background(), model.StatusEvent{TransactionID: "txn-1"}))
	require.NoError(t, p.PublishStatusEvent(context.Background(), model.StatusEvent{TransactionID: "txn-2"}))

	events := p.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "txn-1", events[0].TransactionID)
}

func TestReplayGuard_Claim(t *testing.T) {
	_, adapter := setupTestRedis(t)
	guard := NewReplayGuard(adapter, time.Hour)

	require.NoError(t, guard.Claim("transfer.success", "SP-ref-1"))
	assert.ErrorIs(t, guard.Claim("transfer.success", "SP-ref-1"), ErrAlreadySeen)

	// a different event for the same reference is a distinct delivery
	require.NoError(t, guard.Claim("transfer.failed", "SP-ref-1"))

	// releasing a claim lets the same delivery through again
	require.NoError(t, guard.Release("transfer.success", "SP-ref-1"))
	require.NoError(t, guard.Claim("transfer.success", "SP-ref-1"))
}
