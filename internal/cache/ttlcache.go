// Package cache implements a small Redis-backed TTL cache. Adapted from the
// teacher's delta-detection engine (internal/delta/engine.go), which used
// Redis GET/SET with a JSON-encoded payload and a TTL for <1ms odds-change
// comparison; that specific odds-delta comparison has no equivalent in this
// pipeline (every OddsSnapshot write is immutable, so there is nothing to
// diff against), but the same GET/SET-with-TTL shape is repurposed here as
// a general read-through cache for expensive aggregate queries such as the
// CLV metrics endpoint.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boompicks/pickengine/internal/domain"
)

// TTLCache wraps a Redis client for JSON-encoded read-through caching.
type TTLCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func New(client *redis.Client, ttl time.Duration) *TTLCache {
	return &TTLCache{redis: client, ttl: ttl}
}

// Get unmarshals the cached value for key into dest, reporting whether a
// (non-expired) entry was found.
func (c *TTLCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, domain.ErrTransport("cache get", err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		// Corrupt cache entry: treat as a miss rather than failing the caller.
		return false, nil
	}
	return true, nil
}

// Set marshals value and stores it under key with the cache's configured TTL.
func (c *TTLCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return domain.ErrInternal("marshal cache value", err)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return domain.ErrTransport("cache set", err)
	}
	return nil
}
