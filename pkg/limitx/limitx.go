// Package limitx rate-limits abuse-prone endpoints (login, one-time-code
// requests). The backing store is Redis; when Redis is unavailable the
// limiter fails open so availability is never traded for throttling.
package limitx

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/logx"
	"github.com/redis/go-redis/v9"
)

var registry = errx.NewRegistry("RATE")

// ErrLimited is returned when a caller exceeds the window allowance.
var ErrLimited = registry.Register("LIMITED", errx.TypeBusiness, 429, "Too many requests, try again later")

// Limiter allows at most `limit` hits per key within a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// RedisLimiter implements Limiter with an INCR + EXPIRE fixed window.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow consumes one hit for key. Returns ErrLimited when the window budget
// is spent. Redis errors are logged and the request is allowed through.
func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	redisKey := fmt.Sprintf("limitx:%s:%s", l.prefix, key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		logx.WithError(err).Warn("rate limiter unavailable, failing open")
		return nil
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			logx.WithError(err).Warn("failed to set rate limit window")
		}
	}
	if count > int64(l.limit) {
		return registry.New(ErrLimited).
			WithDetail("retry_after", l.window.String())
	}
	return nil
}

// NopLimiter never limits. Used in tests and when Redis is disabled.
type NopLimiter struct{}

func (NopLimiter) Allow(context.Context, string) error { return nil }
