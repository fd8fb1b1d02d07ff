package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "promptpal:rl:" // sorted set of admission times: promptpal:rl:{client_id}

// admitScript prunes, counts and conditionally records in one round trip.
// KEYS[1] window key; ARGV: cutoff ms, now ms, limit, member, ttl ms.
var admitScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
local count = redis.call('ZCARD', KEYS[1])
if count >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// RedisLimiter shares sliding windows between processes through Redis.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    Clock
}

// NewRedisLimiter creates a Redis-backed sliding-window limiter.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// WithClock replaces the limiter's time source.
func (l *RedisLimiter) WithClock(now Clock) *RedisLimiter {
	l.now = now
	return l
}

// Admit implements Limiter.
func (l *RedisLimiter) Admit(ctx context.Context, clientID string) (bool, error) {
	now := l.now()
	cutoff := now.Add(-l.window)

	res, err := admitScript.Run(ctx, l.client, []string{keyPrefix + clientID},
		strconv.FormatInt(cutoff.UnixMilli(), 10),
		strconv.FormatInt(now.UnixMilli(), 10),
		l.limit,
		uuid.NewString(),
		l.window.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit script: %w", err)
	}
	return res == 1, nil
}
