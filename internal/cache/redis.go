// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/scorekeeper/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for game events.
const DefaultQueueName = "scorekeeper_events"

// ConnectRedis builds a client for addr/db and pings it.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// EventQueue is a Redis list carrying GameEvents from the API server to the
// historian. Producers RPUSH, the consumer BLPOPs.
type EventQueue struct {
	Rdb  *redis.Client
	Name string
}

func NewEventQueue(rdb *redis.Client, name string) *EventQueue {
	if name == "" {
		name = DefaultQueueName
	}
	return &EventQueue{Rdb: rdb, Name: name}
}

// PublishGameEvent serializes the event to JSON and pushes it to the queue.
func (q *EventQueue) PublishGameEvent(ctx context.Context, ev models.GameEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal GameEvent: %w", err)
	}
	if err := q.Rdb.RPush(ctx, q.Name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.Name, err)
	}
	return nil
}

// PopGameEvent blocks up to timeout for the next event. ok is false when the
// wait timed out.
func (q *EventQueue) PopGameEvent(ctx context.Context, timeout time.Duration) (ev models.GameEvent, ok bool, err error) {
	res, err := q.Rdb.BLPop(ctx, timeout, q.Name).Result()
	if errors.Is(err, redis.Nil) {
		return models.GameEvent{}, false, nil
	}
	if err != nil {
		return models.GameEvent{}, false, err
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return models.GameEvent{}, false, nil
	}
	if err := json.Unmarshal([]byte(res[1]), &ev); err != nil {
		return models.GameEvent{}, false, fmt.Errorf("invalid game event: %w", err)
	}
	return ev, true, nil
}
