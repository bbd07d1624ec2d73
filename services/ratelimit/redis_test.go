package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoud01140/onlineEdu/core"
)

// redisClient connects to TEST_REDIS_ADDR, skipping the test when unset.
func redisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStore_Allow(t *testing.T) {
	client := redisClient(t)
	store := NewRedisStore(client, 2, time.Minute)
	now := time.Date(2026, 5, 1, 10, 0, 30, 0, time.UTC)
	store.now = func() time.Time { return now }

	id := "10.0.0.1-" + now.Format(time.RFC3339Nano)
	t.Cleanup(func() {
		keys, _ := client.Keys(context.Background(), keyPrefix+id+"*").Result()
		if len(keys) > 0 {
			client.Del(context.Background(), keys...)
		}
	})

	for i, want := range []bool{true, true, false} {
		ok, err := store.Allow(id)
		require.NoError(t, err)
		assert.Equal(t, want, ok, "request %d", i+1)
	}

	// next window
	now = now.Add(time.Minute)
	ok, err := store.Allow(id)
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := client.TTL(context.Background(), keyPrefix+id+":2026-05-01T10:01:00Z").Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)
}

func TestNewStore(t *testing.T) {
	conf := core.NewTestConfig()
	conf.RateLimit = core.RateLimitConfig{Requests: 3, Window: time.Hour}

	store := NewStore(conf, core.NopLogger{})
	require.IsType(t, &middleware.RateLimiterMemoryStore{}, store)

	for i := 0; i < 3; i++ {
		ok, err := store.Allow("10.0.0.2")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := store.Allow("10.0.0.2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = store.Allow("10.0.0.3")
	assert.True(t, ok, "identifiers are limited separately")
}
