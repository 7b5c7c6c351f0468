package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/planmatch/planmatch/internal/models"
)

// redisContainer manages a redis test container.
type redisContainer struct {
	container testcontainers.Container
	addr      string
}

func startRedisContainer(ctx context.Context) (*redisContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, err
	}

	mappedPort, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return nil, err
	}

	return &redisContainer{
		container: container,
		addr:      fmt.Sprintf("%s:%s", host, mappedPort.Port()),
	}, nil
}

func (rc *redisContainer) Stop(ctx context.Context) error {
	return rc.container.Terminate(ctx)
}

// TestSnapshotCacheIntegration exercises the cache against a real redis
// instance, including the instrumented client built by NewSnapshotCache.
func TestSnapshotCacheIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := startRedisContainer(ctx)
	require.NoError(t, err)
	defer container.Stop(ctx)

	cache, err := NewSnapshotCache(&RedisConfig{
		Addr:     container.addr,
		DB:       0,
		PoolSize: 10,
	})
	require.NoError(t, err)
	defer cache.Close()

	matches := []models.Match{
		{
			ID:            "m-1",
			CounterpartID: "u-2",
			ActivityType:  "hike",
			Status:        models.MatchStatusActive,
			UpdatedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:            "m-2",
			CounterpartID: "u-3",
			Status:        models.MatchStatusConfirmed,
			MyConfirmed:   true,
			UpdatedAt:     time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC),
		},
	}

	t.Run("Put and Get round trip", func(t *testing.T) {
		require.NoError(t, cache.PutMatches(ctx, "u-1", matches))

		got, hit, err := cache.GetMatches(ctx, "u-1")
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, matches, got)
	})

	t.Run("Miss for unknown user", func(t *testing.T) {
		got, hit, err := cache.GetMatches(ctx, "u-unknown")
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Nil(t, got)
	})

	t.Run("Invalidate", func(t *testing.T) {
		require.NoError(t, cache.PutMatches(ctx, "u-del", matches))
		require.NoError(t, cache.Invalidate(ctx, "u-del"))

		_, hit, err := cache.GetMatches(ctx, "u-del")
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("Snapshots are isolated per user", func(t *testing.T) {
		other := []models.Match{{ID: "m-9", CounterpartID: "u-9", Status: models.MatchStatusActive}}
		require.NoError(t, cache.PutMatches(ctx, "u-a", matches))
		require.NoError(t, cache.PutMatches(ctx, "u-b", other))

		got, hit, err := cache.GetMatches(ctx, "u-b")
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, other, got)
	})

	t.Run("Health Check", func(t *testing.T) {
		assert.True(t, cache.HealthCheck(ctx))
	})
}

// TestSnapshotCacheIntegration_TTL verifies entries expire on their own.
func TestSnapshotCacheIntegration_TTL(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := startRedisContainer(ctx)
	require.NoError(t, err)
	defer container.Stop(ctx)

	cache, err := NewSnapshotCache(&RedisConfig{Addr: container.addr})
	require.NoError(t, err)
	defer cache.Close()
	cache.ttl = time.Second

	require.NoError(t, cache.PutMatches(ctx, "u-ttl", []models.Match{{ID: "m-1"}}))

	_, hit, err := cache.GetMatches(ctx, "u-ttl")
	require.NoError(t, err)
	assert.True(t, hit)

	time.Sleep(2 * time.Second)

	_, hit, err = cache.GetMatches(ctx, "u-ttl")
	require.NoError(t, err)
	assert.False(t, hit, "entry must expire after its TTL")
}

// TestSnapshotCacheIntegration_Failure verifies behavior once redis goes away.
func TestSnapshotCacheIntegration_Failure(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := startRedisContainer(ctx)
	require.NoError(t, err)

	cache, err := NewSnapshotCache(&RedisConfig{Addr: container.addr})
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.PutMatches(ctx, "u-1", []models.Match{{ID: "m-1"}}))
	require.NoError(t, container.Stop(ctx))

	assert.Error(t, cache.PutMatches(ctx, "u-1", []models.Match{{ID: "m-2"}}))
	_, _, err = cache.GetMatches(ctx, "u-1")
	assert.Error(t, err)
	assert.False(t, cache.HealthCheck(ctx))
}
