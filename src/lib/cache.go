package lib

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key has no value in the cache.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is the capability handed to read paths that want to reuse a prior
// result. Callers must tolerate stale entries: a slot is only invalidated
// by being overwritten or explicitly dropped, never by data mutation.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type RedisCache struct {
	inner *redis.Client
}

func NewRedisCache(c *redis.Client) *RedisCache {
	return &RedisCache{inner: c}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.inner.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		log.Printf("[cache] Error reading key %s: %s\n", key, err.Error())
		return "", err
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.inner.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("[cache] Error writing key %s: %s\n", key, err.Error())
		return err
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	if err := c.inner.Del(ctx, key).Err(); err != nil {
		log.Printf("[cache] Error dropping key %s: %s\n", key, err.Error())
		return err
	}
	return nil
}

// DefaultCache wraps the shared redis client.
func DefaultCache() Cache {
	return NewRedisCache(GetRedisClient())
}
