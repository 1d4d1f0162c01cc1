package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracker(t *testing.T, ttl time.Duration) (*DeliveryTracker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewDeliveryTracker(rdb, ttl), mr
}

func TestTrackCountsRedeliveries(t *testing.T) {
	tracker, mr := newTracker(t, time.Hour)
	ctx := context.Background()

	n, err := tracker.Track(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = tracker.Track(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = tracker.Track(ctx, "evt_2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, time.Hour, mr.TTL(attemptsKey("evt_1")))
}

func TestOutcomeExpiresWithTTL(t *testing.T) {
	tracker, mr := newTracker(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, tracker.RecordOutcome(ctx, "evt_1", "processed"))
	got, err := tracker.Outcome(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, "processed", got)

	mr.FastForward(2 * time.Minute)
	got, err = tracker.Outcome(ctx, "evt_1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTrackFailsWhenRedisIsDown(t *testing.T) {
	tracker, mr := newTracker(t, time.Minute)
	mr.Close()

	_, err := tracker.Track(context.Background(), "evt_1")
	assert.Error(t, err)
}
