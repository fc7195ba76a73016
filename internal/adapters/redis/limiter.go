// Package redis provides a Redis-backed rate limiter.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/ports"
)

// ClientConfig holds connection parameters for the Redis client.
type ClientConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// Limiter counts requests per key in fixed windows.
type Limiter struct {
	rdb    *redis.Client
	prefix string
}

var _ ports.RateLimiter = (*Limiter)(nil)

// New connects to Redis, pings it and returns a limiter.
func New(ctx context.Context, cfg ClientConfig) (*Limiter, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return NewLimiter(rdb), nil
}

// NewLimiter wraps an existing client.
func NewLimiter(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb, prefix: "kisanmandi:ratelimit:"}
}

// Close closes the Redis connection.
func (l *Limiter) Close() error {
	return l.rdb.Close()
}

// Allow increments the counter for key in the current window and reports
// whether it is still within limit.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}

	k := l.windowKey(key, window, time.Now())
	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis: rate limit allow %s: %w", key, err)
	}

	return incr.Val() <= int64(limit), nil
}

func (l *Limiter) windowKey(key string, window time.Duration, now time.Time) string {
	bucket := now.UnixMilli() / window.Milliseconds()
	return fmt.Sprintf("%s%s:%d", l.prefix, key, bucket)
}
