package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// Redis stores entries in a Redis server using native key expiry.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects using a redis:// URL and verifies the connection.
func NewRedis(ctx context.Context, url, prefix string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "cache: parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "cache: ping redis")
	}
	return NewRedisClient(client, prefix, ttl), nil
}

// NewRedisClient wraps an existing client.
func NewRedisClient(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "dengue-atlas:"
	}
	return &Redis{client: client, prefix: prefix, ttl: ttlOr(ttl, DefaultTTL)}
}

// Get returns a cached value.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: redis get")
	}
	return b, true, nil
}

// Set stores a value with expiry.
func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttlOr(ttl, c.ttl)).Err(); err != nil {
		return eris.Wrap(err, "cache: redis set")
	}
	return nil
}

// Delete removes a key.
func (c *Redis) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return eris.Wrap(err, "cache: redis del")
	}
	return nil
}

// Close closes the client.
func (c *Redis) Close() error {
	return c.client.Close()
}
