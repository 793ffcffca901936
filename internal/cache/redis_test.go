package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	c := NewRedisClient(client, "", time.Minute)
	defer c.Close() //nolint:errcheck

	assert.Equal(t, "dengue-atlas:", c.prefix)
	_, _, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
}

// TestRedis_RoundTrip runs against a real server when DENGUE_TEST_REDIS_URL is set.
func TestRedis_RoundTrip(t *testing.T) {
	url := os.Getenv("DENGUE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("DENGUE_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedis(ctx, url, "dengue-atlas-test:", time.Minute)
	require.NoError(t, err)
	defer c.Close() //nolint:errcheck

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
