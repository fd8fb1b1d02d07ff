package bootstrap

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/promptpal/promptpal-backend/config"
	httpapi "github.com/promptpal/promptpal-backend/internal/api/http"
	"github.com/promptpal/promptpal-backend/internal/suggestions/cache"
	"github.com/promptpal/promptpal-backend/internal/suggestions/ratelimit"
	"github.com/promptpal/promptpal-backend/internal/suggestions/remote"
	"github.com/promptpal/promptpal-backend/internal/suggestions/service"
)

// Suggestions is the assembled suggestion pipeline plus what it needs to
// be served and shut down.
type Suggestions struct {
	Service *service.SuggestionService
	Metrics *service.Metrics
	Remote  *remote.Client
	Backend string

	redis *redis.Client
}

// Close releases the Redis connection, if any.
func (s *Suggestions) Close() error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}

// BuildSuggestions wires limiter, cache and remote client from cfg. With
// REDIS_URL set both stores live in Redis, otherwise in process memory.
func BuildSuggestions(ctx context.Context, cfg *config.Config) (*Suggestions, error) {
	remoteCfg := remote.Config{
		Provider:          cfg.Remote.Provider,
		BaseURL:           cfg.Remote.BaseURL,
		Model:             cfg.Remote.Model,
		Timeout:           cfg.Remote.Timeout,
		RetryDelay:        cfg.Remote.RetryDelay,
		MinLength:         cfg.Remote.MinLength,
		RequestsPerSecond: cfg.Remote.RequestsPerSecond,
		Burst:             cfg.Remote.Burst,
	}
	if cfg.RemoteEnabled() {
		remoteCfg.APIKey = cfg.Remote.APIKey
	}
	client, err := remote.NewClient(remoteCfg)
	if err != nil {
		return nil, fmt.Errorf("remote client: %w", err)
	}

	out := &Suggestions{
		Metrics: service.NewMetrics(),
		Remote:  client,
		Backend: cache.BackendMemory,
	}

	var (
		limiter ratelimit.Limiter
		store   cache.Cache
	)
	if cfg.Redis.URL != "" {
		rdb, err := OpenRedis(ctx, RedisOptions{URL: cfg.Redis.URL})
		if err != nil {
			return nil, err
		}
		out.redis = rdb
		out.Backend = cache.BackendRedis
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.PerMinute, cfg.RateLimit.Window)
		store = cache.NewRedisCache(rdb, cfg.Cache.TTL)
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Window)
		store = cache.NewMemoryCache(cfg.Cache.Capacity, cfg.Cache.TTL)
	}

	out.Service = service.NewSuggestionService(service.Deps{
		Limiter: limiter,
		Cache:   store,
		Remote:  client,
		Metrics: out.Metrics,
	})

	log.Info("suggestion pipeline ready",
		"backend", out.Backend,
		"remote", client.Enabled(),
		"provider", client.Provider(),
		"model", client.Model(),
	)
	return out, nil
}

// DiagInfo summarises cfg for the /diag endpoint.
func (s *Suggestions) DiagInfo(cfg *config.Config) httpapi.DiagInfo {
	return httpapi.DiagInfo{
		Environment:    cfg.App.Environment,
		Version:        cfg.App.Version,
		RemoteProvider: s.Remote.Provider(),
		RemoteModel:    s.Remote.Model(),
		RemoteEnabled:  s.Remote.Enabled(),
		RateLimit:      cfg.RateLimit.PerMinute,
		CacheTTL:       int(cfg.Cache.TTL.Seconds()),
		Backend:        s.Backend,
	}
}
