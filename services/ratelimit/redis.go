// Package ratelimit provides the stores backing the API rate limiter.
package ratelimit

import (
	"context"
	"time"

	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/mahmoud01140/onlineEdu/core"
)

const keyPrefix = "ratelimit:"

// RedisStore counts requests per identifier in fixed windows shared by every API instance.
type RedisStore struct {
	client  redis.Cmdable
	limit   int64
	window  time.Duration
	timeout time.Duration
	now     func() time.Time // mockable
}

var _ middleware.RateLimiterStore = (*RedisStore)(nil)

func NewRedisStore(client redis.Cmdable, limit int, window time.Duration) *RedisStore {
	return &RedisStore{
		client:  client,
		limit:   int64(limit),
		window:  window,
		timeout: time.Second,
		now:     time.Now,
	}
}

// Allow increments the identifier's counter for the current window.
func (s *RedisStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	win := s.now().UnixNano() / int64(s.window)
	key := keyPrefix + identifier + ":" + time.Unix(0, win*int64(s.window)).UTC().Format(time.RFC3339)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, errors.Wrap(err, "counting request")
	}
	return incr.Val() <= s.limit, nil
}

// NewStore returns the redis store when an address is configured and reachable,
// echo's in-memory store otherwise.
func NewStore(conf *core.Config, logger core.Logger) middleware.RateLimiterStore {
	rl := conf.RateLimit
	if conf.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := client.Ping(ctx).Err()
		if err == nil {
			return NewRedisStore(client, rl.Requests, rl.Window)
		}
		logger.Warn("redis unreachable, rate limiting in memory", err)
		_ = client.Close()
	}
	return NewMemoryStore(rl.Requests, rl.Window)
}

// NewMemoryStore spreads limit requests over window with a burst of limit.
func NewMemoryStore(limit int, window time.Duration) *middleware.RateLimiterMemoryStore {
	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(limit) / window.Seconds()),
		Burst:     limit,
		ExpiresIn: window,
	})
}
