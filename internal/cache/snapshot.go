// Package cache provides the redis-backed warm-start cache for match
// snapshots. The cache is consulted while a session's initial REST refresh is
// in flight; it is never the source of truth and every entry is TTL-bounded.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"

	apperrors "github.com/planmatch/planmatch/internal/errors"
	"github.com/planmatch/planmatch/internal/models"
	"github.com/planmatch/planmatch/internal/telemetry"
)

// SnapshotTTL bounds how long a cached snapshot may serve as warm-start
// state.
const SnapshotTTL = 2 * time.Hour

const keyPrefix = "planmatch:snapshot:"

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// redisClient is the subset of redis operations the cache uses, kept as an
// interface for testing.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// SnapshotCache caches the last good match snapshot per user.
type SnapshotCache struct {
	client redisClient
	ttl    time.Duration
}

// NewSnapshotCache connects to redis and verifies the connection.
func NewSnapshotCache(config *RedisConfig) (*SnapshotCache, error) {
	ctx := telemetry.WithCorrelationID(context.Background(), telemetry.NewCorrelationID())
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"operation": "redis_connect",
		"addr":      config.Addr,
		"db":        config.DB,
	})

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	client.AddHook(redisotel.NewTracingHook())

	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Error("Failed to connect to redis")
		return nil, apperrors.NewCacheError("connect", err)
	}

	logger.Info("Connected to redis")
	return &SnapshotCache{client: client, ttl: SnapshotTTL}, nil
}

// NewSnapshotCacheWithClient wires an existing client, used in tests.
func NewSnapshotCacheWithClient(client redisClient, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

// PutMatches stores a user's match snapshot.
func (c *SnapshotCache) PutMatches(ctx context.Context, userID string, matches []models.Match) error {
	data, err := json.Marshal(matches)
	if err != nil {
		return apperrors.NewCacheError("encode_snapshot", err)
	}
	if err := c.client.Set(ctx, keyPrefix+userID, data, c.ttl).Err(); err != nil {
		return apperrors.NewCacheError("put_snapshot", err)
	}
	return nil
}

// GetMatches returns the cached snapshot for a user. A miss returns
// (nil, false, nil); only transport or decode failures are errors.
func (c *SnapshotCache) GetMatches(ctx context.Context, userID string) ([]models.Match, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+userID).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.NewCacheError("get_snapshot", err)
	}

	var matches []models.Match
	if err := json.Unmarshal(data, &matches); err != nil {
		return nil, false, apperrors.NewCacheError("decode_snapshot", err)
	}
	return matches, true, nil
}

// Invalidate drops a user's cached snapshot.
func (c *SnapshotCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, keyPrefix+userID).Err(); err != nil {
		return apperrors.NewCacheError("invalidate_snapshot", err)
	}
	return nil
}

// HealthCheck reports whether redis answers a ping.
func (c *SnapshotCache) HealthCheck(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

// Close releases the underlying connection pool.
func (c *SnapshotCache) Close() error {
	return c.client.Close()
}
