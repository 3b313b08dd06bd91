package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/agency-pulse/internal/config"
)

// SnapshotCache caches fully assembled dashboard snapshots in Redis so
// repeat loads of the same client+timeframe skip the aggregation pass.
// A nil cache is valid and behaves as a permanent miss.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache connects to Redis. Returns nil (cache disabled, not
// an error) when the config has caching turned off.
func NewSnapshotCache(cfg config.RedisConfig) (*SnapshotCache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.Addr)
	if err != nil {
		// Try as host:port format
		opts = &redis.Options{Addr: cfg.Addr}
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &SnapshotCache{rdb: rdb, ttl: cfg.TTL()}, nil
}

// NewSnapshotCacheWithClient wraps an existing client (used by tests).
func NewSnapshotCacheWithClient(rdb *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: rdb, ttl: ttl}
}

func snapshotKey(clientID string, timeframeDays int) string {
	return fmt.Sprintf("pulse:snapshot:%s:%d", clientID, timeframeDays)
}

// Get unmarshals a cached snapshot into dest. Returns false on a miss
// or any Redis error; callers fall through to the database either way.
func (c *SnapshotCache) Get(ctx context.Context, clientID string, timeframeDays int, dest interface{}) bool {
	if c == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, snapshotKey(clientID, timeframeDays)).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// Set stores a snapshot with the configured TTL. Failures are dropped;
// the cache is best-effort.
func (c *SnapshotCache) Set(ctx context.Context, clientID string, timeframeDays int, value interface{}) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, snapshotKey(clientID, timeframeDays), data, c.ttl)
}

// Invalidate drops every cached timeframe for a client, called after a
// sync replaces the client's records.
func (c *SnapshotCache) Invalidate(ctx context.Context, clientID string) {
	if c == nil {
		return
	}
	pattern := fmt.Sprintf("pulse:snapshot:%s:*", clientID)
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		c.rdb.Del(ctx, iter.Val())
	}
}

// Close releases the Redis connection.
func (c *SnapshotCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
