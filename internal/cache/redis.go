// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for accepted-action records.
var DefaultQueueName = "kaboom_actions"

// ActionRecord holds the minimal info the historian service needs to
// reconstruct a round: which room, which version the write produced,
// who acted and what they did.
type ActionRecord struct {
	RoomCode   string                 `json:"room_code"`
	Version    uint64                 `json:"version"`
	ActorID    uuid.UUID              `json:"actor_id"`
	ActionType string                 `json:"action_type"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Timestamp  int64                  `json:"timestamp"`
}

// ActionQueue pushes accepted actions onto a Redis list consumed by
// cmd/historian. A nil *ActionQueue is a no-op publisher.
type ActionQueue struct {
	rdb   *redis.Client
	queue string
}

// NewActionQueue initializes the queue from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - HISTORIAN_QUEUE_NAME (default "kaboom_actions")
func NewActionQueue(ctx context.Context) (*ActionQueue, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	queue := os.Getenv("HISTORIAN_QUEUE_NAME")
	if queue == "" {
		queue = DefaultQueueName
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &ActionQueue{rdb: rdb, queue: queue}, nil
}

// Publish serializes the record and pushes it onto the queue. Does not
// block beyond the network send; the historian drains asynchronously.
func (q *ActionQueue) Publish(ctx context.Context, record ActionRecord) error {
	if q == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list %q: %w", q.queue, err)
	}
	return nil
}
