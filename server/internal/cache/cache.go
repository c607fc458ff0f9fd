// Package cache wraps a short-TTL Redis-backed cache with tag-based
// invalidation. Per spec.md §4 the cache is never authoritative: every
// operation here is a pure optimization and callers must always be able to
// recompute a value from the store on a miss.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin convenience layer over go-redis.
type Cache struct {
	rdb *redis.Client
}

// New parses a redis:// URL and builds a Cache, verifying connectivity.
func New(ctx context.Context, url string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing cache url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to cache: %w", err)
	}
	return &Cache{rdb: rdb}, nil
}

// Close releases the underlying connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Set stores value under key with a TTL, and registers key under each tag so
// it can later be invalidated as a group.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration, tags ...string) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling cache value for %s: %w", key, err)
	}
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, key, body, ttl)
	for _, tag := range tags {
		tagKey := tagSetKey(tag)
		pipe.SAdd(ctx, tagKey, key)
		pipe.Expire(ctx, tagKey, ttl+time.Minute)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	return nil
}

// Get reads key and unmarshals it into dest. It reports (false, nil) on a
// clean miss so callers fall through to recomputing the value.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	body, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return false, fmt.Errorf("unmarshaling cache entry %s: %w", key, err)
	}
	return true, nil
}

// InvalidateTag deletes every key registered under tag (e.g. "source:<id>",
// "date:<yyyy-mm-dd>"), used when a write makes a batch of cached reads stale.
func (c *Cache) InvalidateTag(ctx context.Context, tag string) error {
	tagKey := tagSetKey(tag)
	keys, err := c.rdb.SMembers(ctx, tagKey).Result()
	if err != nil {
		return fmt.Errorf("listing tag members for %s: %w", tag, err)
	}
	if len(keys) == 0 {
		return nil
	}
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.Del(ctx, tagKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidating tag %s: %w", tag, err)
	}
	return nil
}

func tagSetKey(tag string) string {
	return "tag:" + tag
}
