package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/promptpal/promptpal-backend/internal/suggestions/domain"
)

const keyPrefix = "promptpal:cache:" // suggestion result: promptpal:cache:{fingerprint}

// RedisCache keeps results in Redis so several processes can share them.
// Redis expiry removes entries; freshness is still checked against the
// stored creation time.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	now    Clock
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the cache's time source.
func (c *RedisCache) WithClock(now Clock) *RedisCache {
	c.now = now
	return c
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, fingerprint string) (*domain.SuggestionResult, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+fingerprint).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	if !entry.Fresh(c.now(), c.ttl) {
		return nil, false, nil
	}
	return &entry.Result, true, nil
}

// Put implements Cache.
func (c *RedisCache) Put(ctx context.Context, fingerprint string, result domain.SuggestionResult) error {
	data, err := json.Marshal(domain.CacheEntry{Result: result, CreatedAt: c.now()})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+fingerprint, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Len implements Cache by scanning the key prefix.
func (c *RedisCache) Len(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 200).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to scan cache keys: %w", err)
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

// Sweep implements Cache. Redis expires keys on its own, so there is
// nothing to do.
func (c *RedisCache) Sweep(context.Context) (int, error) {
	return 0, nil
}

// Backend implements Cache.
func (c *RedisCache) Backend() string { return BackendRedis }
