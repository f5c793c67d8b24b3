package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisKeyPrefix namespaces every key written by RedisCache
const RedisKeyPrefix = "omnipath:"

const scanCount = 100

// RedisCache stores gob blobs in Redis. Entries never expire; Clear removes
// only keys under RedisKeyPrefix.
type RedisCache struct {
	redis *redis.Client
	addr  string
}

// NewRedisCache connects to the server at redisURL and checks it answers
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisCacheWithClient(client), nil
}

// NewRedisCacheWithClient wraps an existing client
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{redis: client, addr: client.Options().Addr}
}

func (c *RedisCache) key(k string) string { return RedisKeyPrefix + k }

// Get returns the decoded entry for key
func (c *RedisCache) Get(ctx context.Context, key string) (any, error) {
	val, err := c.redis.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry %s: %w", key, err)
	}
	return Decode(val)
}

// Set stores value without expiry; empty values are ignored
func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	if IsEmpty(value) {
		return nil
	}
	blob, err := Encode(value)
	if err != nil {
		return err
	}
	if err := c.redis.Set(ctx, c.key(key), blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry %s: %w", key, err)
	}
	return nil
}

// Contains reports whether key exists
func (c *RedisCache) Contains(ctx context.Context, key string) (bool, error) {
	n, err := c.redis.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cache entry %s: %w", key, err)
	}
	return n > 0, nil
}

// scan walks every key under the prefix
func (c *RedisCache) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := c.redis.Scan(ctx, cursor, RedisKeyPrefix+"*", scanCount).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Clear deletes every key under the prefix
func (c *RedisCache) Clear(ctx context.Context) error {
	return c.scan(ctx, func(keys []string) error {
		if err := c.redis.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
		return nil
	})
}

// Len counts the keys under the prefix
func (c *RedisCache) Len(ctx context.Context) (int, error) {
	n := 0
	err := c.scan(ctx, func(keys []string) error {
		n += len(keys)
		return nil
	})
	return n, err
}

// Path returns the server address
func (c *RedisCache) Path() string { return "redis://" + c.addr }

// Close closes the client
func (c *RedisCache) Close() error {
	return c.redis.Close()
}
