package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "billing:webhook:"

// DeliveryTracker counts how often the provider delivered each webhook event
// and remembers how the last attempt ended. It is observability only: the
// reconciler is idempotent on its own and never consults these counters.
type DeliveryTracker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDeliveryTracker(rdb *redis.Client, ttl time.Duration) *DeliveryTracker {
	return &DeliveryTracker{rdb: rdb, ttl: ttl}
}

func attemptsKey(eventID string) string { return keyPrefix + eventID + ":attempts" }
func outcomeKey(eventID string) string  { return keyPrefix + eventID + ":outcome" }

// Track records one delivery and returns the attempt number, starting at 1.
func (t *DeliveryTracker) Track(ctx context.Context, eventID string) (int64, error) {
	key := attemptsKey(eventID)
	pipe := t.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("track delivery %s: %w", eventID, err)
	}
	return incr.Val(), nil
}

func (t *DeliveryTracker) RecordOutcome(ctx context.Context, eventID, outcome string) error {
	if err := t.rdb.Set(ctx, outcomeKey(eventID), outcome, t.ttl).Err(); err != nil {
		return fmt.Errorf("record outcome %s: %w", eventID, err)
	}
	return nil
}

// Outcome returns "" when nothing was recorded or the record expired.
func (t *DeliveryTracker) Outcome(ctx context.Context, eventID string) (string, error) {
	v, err := t.rdb.Get(ctx, outcomeKey(eventID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read outcome %s: %w", eventID, err)
	}
	return v, nil
}
