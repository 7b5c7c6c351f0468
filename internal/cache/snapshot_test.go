package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planmatch/planmatch/internal/models"
)

// fakeRedis is an in-memory stand-in for the redis client interface.
type fakeRedis struct {
	data   map[string]string
	failed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if f.failed {
		return redis.NewStatusResult("", assert.AnError)
	}
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.failed {
		return redis.NewStringResult("", assert.AnError)
	}
	value, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	if f.failed {
		return redis.NewStatusResult("", assert.AnError)
	}
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Close() error { return nil }

func TestSnapshotCache_PutGetRoundTrip(t *testing.T) {
	fake := newFakeRedis()
	cache := NewSnapshotCacheWithClient(fake, time.Hour)
	ctx := context.Background()

	matches := []models.Match{
		{ID: "m-1", CounterpartID: "u-2", Status: models.MatchStatusActive},
		{ID: "m-2", CounterpartID: "u-3", Status: models.MatchStatusConfirmed},
	}
	require.NoError(t, cache.PutMatches(ctx, "u-1", matches))

	got, hit, err := cache.GetMatches(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, matches, got)
}

func TestSnapshotCache_MissIsNotAnError(t *testing.T) {
	cache := NewSnapshotCacheWithClient(newFakeRedis(), time.Hour)

	got, hit, err := cache.GetMatches(context.Background(), "u-unknown")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, got)
}

func TestSnapshotCache_Invalidate(t *testing.T) {
	fake := newFakeRedis()
	cache := NewSnapshotCacheWithClient(fake, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.PutMatches(ctx, "u-1", []models.Match{{ID: "m-1"}}))
	require.NoError(t, cache.Invalidate(ctx, "u-1"))

	_, hit, err := cache.GetMatches(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSnapshotCache_TransportFailure(t *testing.T) {
	fake := newFakeRedis()
	fake.failed = true
	cache := NewSnapshotCacheWithClient(fake, time.Hour)

	_, _, err := cache.GetMatches(context.Background(), "u-1")
	assert.Error(t, err)

	assert.False(t, cache.HealthCheck(context.Background()))
}
