package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/shirapay/shirapay/pkg/redis"
)

var ErrAlreadySeen = errors.New("webhook event already seen")

// ReplayGuard remembers webhook deliveries so a replayed event is detected
// before it reaches the database. The database status precondition is the
// real idempotency barrier; this just keeps replays cheap.
type ReplayGuard struct {
	redis redis.RedisAdapter
	ttl   time.Duration
}

func NewReplayGuard(adapter redis.RedisAdapter, ttl time.Duration) *ReplayGuard {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &ReplayGuard{redis: adapter, ttl: ttl}
}

// Claim marks the (event, reference) pair as seen. Returns ErrAlreadySeen
// when an identical delivery already claimed it.
func (g *ReplayGuard) Claim(event, reference string) error {
	ok, err := g.redis.SetNX(seenKey(event, reference), []byte("1"), g.ttl)
	if err != nil {
		// on Redis failure fall through to the database precondition
		return nil
	}
	if !ok {
		return ErrAlreadySeen
	}
	return nil
}

// Release forgets a claim. Called when applying the event failed, so the
// provider's retry is not swallowed as a duplicate.
func (g *ReplayGuard) Release(event, reference string) error {
	return g.redis.Del(seenKey(event, reference))
}

func seenKey(event, reference string) string {
	return fmt.Sprintf("webhook:seen:%s:%s", event, reference)
}
