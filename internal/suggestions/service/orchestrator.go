// Package service runs the suggestion pipeline: rate limit, cache lookup,
// remote attempt, template top-up, cache store.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/promptpal/promptpal-backend/internal/suggestions/cache"
	"github.com/promptpal/promptpal-backend/internal/suggestions/categorizer"
	"github.com/promptpal/promptpal-backend/internal/suggestions/domain"
	"github.com/promptpal/promptpal-backend/internal/suggestions/ratelimit"
	"github.com/promptpal/promptpal-backend/internal/suggestions/remote"
	"github.com/promptpal/promptpal-backend/internal/suggestions/templates"
)

// FallbackFunc produces template suggestions for a prompt.
type FallbackFunc func(promptText string, tags []string) []string

// Deps holds everything the service needs. Nil fields get in-memory defaults
// and a disabled remote.
type Deps struct {
	Limiter  ratelimit.Limiter
	Cache    cache.Cache
	Remote   remote.Suggester
	Metrics  *Metrics
	Fallback FallbackFunc
}

// SuggestionService orchestrates one suggestion request end to end.
type SuggestionService struct {
	limiter  ratelimit.Limiter
	cache    cache.Cache
	remote   remote.Suggester
	metrics  *Metrics
	fallback FallbackFunc
}

// NewSuggestionService creates a new suggestion service.
func NewSuggestionService(deps Deps) *SuggestionService {
	s := &SuggestionService{
		limiter:  deps.Limiter,
		cache:    deps.Cache,
		remote:   deps.Remote,
		metrics:  deps.Metrics,
		fallback: deps.Fallback,
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewMemoryLimiter(ratelimit.DefaultLimit, ratelimit.DefaultWindow)
	}
	if s.cache == nil {
		s.cache = cache.NewMemoryCache(cache.DefaultCapacity, cache.DefaultTTL)
	}
	if s.remote == nil {
		s.remote = disabledRemote{}
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.fallback == nil {
		s.fallback = templates.GenerateFallback
	}
	return s
}

// Suggest returns exactly three suggestions for req. The only errors are
// domain.ErrEmptyPrompt and domain.ErrRateLimited; every other failure
// degrades to template output.
func (s *SuggestionService) Suggest(ctx context.Context, req domain.SuggestionRequest) (*domain.SuggestionResult, error) {
	logger := NewLogger(ctx)

	if strings.TrimSpace(req.PromptText) == "" {
		s.metrics.recordRequest(outcomeInvalid)
		return nil, domain.ErrEmptyPrompt
	}

	if !s.admit(ctx, logger, req.ClientID) {
		s.metrics.recordRequest(outcomeRateLimited)
		logger.LogInfof("suggest", "client %s over rate limit", req.ClientID)
		return nil, domain.ErrRateLimited
	}

	fingerprint := cache.Fingerprint(req.PromptText, req.Tags)
	if hit := s.lookup(ctx, logger, fingerprint); hit != nil {
		s.metrics.recordRequest(outcomeCached)
		return hit, nil
	}

	return s.generate(ctx, logger, req, fingerprint), nil
}

func (s *SuggestionService) admit(ctx context.Context, logger *Logger, clientID string) bool {
	ctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	ok, err := s.limiter.Admit(ctx, clientID)
	if err != nil {
		logger.LogWarnf("rate_limit", "limiter unavailable, admitting request: %v", err)
		return true
	}
	return ok
}

func (s *SuggestionService) lookup(ctx context.Context, logger *Logger, fingerprint string) *domain.SuggestionResult {
	ctx, cancel := context.WithTimeout(ctx, StoreTimeout)
	defer cancel()

	result, ok, err := s.cache.Get(ctx, fingerprint)
	switch {
	case err != nil:
		s.metrics.recordCacheLookup("error")
		logger.LogWarnf("cache_get", "cache unavailable, treating as miss: %v", err)
		return nil
	case !ok:
		s.metrics.recordCacheLookup("miss")
		return nil
	}

	s.metrics.recordCacheLookup("hit")
	logger.LogDebugf("cache_get", "cache hit for %s", fingerprint[:12])
	result.Meta.Cached = true
	return result
}

// generate covers the remote attempt, merge and store. A panic anywhere in
// here yields an uncached template-only result.
func (s *SuggestionService) generate(ctx context.Context, logger *Logger, req domain.SuggestionRequest, fingerprint string) (result *domain.SuggestionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogErrorf("suggest", "pipeline panic, serving templates: %v", r)
			s.metrics.recordRequest(outcomeRecovered)
			result = recoveryResult(req)
		}
	}()

	var remoteSuggestions []string
	if s.remote.Enabled() {
		start := time.Now()
		outcome := s.remote.TryRemote(ctx, req.PromptText, req.Tags)
		s.metrics.recordRemote(outcome, time.Since(start))
		if !outcome.OK() {
			logger.LogWarnf("remote", "remote gave %d suggestions (%s) after %d attempt(s): %v",
				len(outcome.Suggestions), outcome.Reason, outcome.Attempts, outcome.Err)
		}
		remoteSuggestions = outcome.Suggestions
	}

	merged := s.merge(req, remoteSuggestions)
	s.metrics.recordEngine(merged.Meta.Engine)
	s.store(ctx, logger, fingerprint, merged)
	s.metrics.recordRequest(outcomeServed)
	return &merged
}

func (s *SuggestionService) merge(req domain.SuggestionRequest, remoteSuggestions []string) domain.SuggestionResult {
	suggestions := make([]string, 0, domain.SuggestionCount)
	for _, sg := range remoteSuggestions {
		if len(suggestions) == domain.SuggestionCount {
			break
		}
		suggestions = append(suggestions, sg)
	}
	remoteCount := len(suggestions)

	if remoteCount < domain.SuggestionCount {
		for _, sg := range s.fallback(req.PromptText, req.Tags) {
			if len(suggestions) == domain.SuggestionCount {
				break
			}
			suggestions = append(suggestions, sg)
		}
	}

	return domain.SuggestionResult{
		Suggestions: suggestions,
		Meta: domain.SuggestionMeta{
			UsedRemote:    remoteCount > 0,
			RemoteCount:   remoteCount,
			FallbackCount: len(suggestions) - remoteCount,
			Engine:        engineFor(remoteCount),
			Category:      categorizer.Classify(req.PromptText, req.Tags).String(),
		},
	}
}

func (s *SuggestionService) store(ctx context.Context, logger *Logger, fingerprint string, result domain.SuggestionResult) {
	// the result is worth keeping even if the caller has gone away
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), StoreTimeout)
	defer cancel()

	if err := s.cache.Put(ctx, fingerprint, result); err != nil {
		logger.LogError("cache_put", err)
	}
}

func engineFor(remoteCount int) string {
	switch {
	case remoteCount >= domain.SuggestionCount:
		return domain.EngineRemote
	case remoteCount > 0:
		return domain.EngineHybrid
	default:
		return domain.EngineTemplate
	}
}

func recoveryResult(req domain.SuggestionRequest) *domain.SuggestionResult {
	category := categorizer.Classify(req.PromptText, req.Tags)
	suggestions := templates.Render(category, req.PromptText, req.Tags)
	return &domain.SuggestionResult{
		Suggestions: suggestions,
		Meta: domain.SuggestionMeta{
			FallbackCount: len(suggestions),
			Engine:        domain.EngineTemplate,
			Category:      category.String(),
		},
	}
}

// RemoteEnabled reports whether remote suggestions are configured.
func (s *SuggestionService) RemoteEnabled() bool {
	return s.remote.Enabled()
}

// CacheBackend names the cache storage in use.
func (s *SuggestionService) CacheBackend() string {
	return s.cache.Backend()
}

// CacheSize returns the number of cached entries, or -1 if the backend
// cannot be reached.
func (s *SuggestionService) CacheSize(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, StatusTimeout)
	defer cancel()

	n, err := s.cache.Len(ctx)
	if err != nil {
		NewLogger(ctx).LogWarnf("cache_len", "failed to read cache size: %v", err)
		return -1
	}
	return n
}

// TrackedClients returns how many clients hold rate-limit state in this
// process, or -1 when the limiter keeps it elsewhere.
func (s *SuggestionService) TrackedClients() int {
	if c, ok := s.limiter.(interface{ Clients() int }); ok {
		return c.Clients()
	}
	return -1
}

// Sweep drops expired cache entries and idle limiter state.
func (s *SuggestionService) Sweep(ctx context.Context) (cacheRemoved, clientsRemoved int, err error) {
	if sw, ok := s.limiter.(interface{ Sweep() int }); ok {
		clientsRemoved = sw.Sweep()
	}
	cacheRemoved, err = s.cache.Sweep(ctx)
	return cacheRemoved, clientsRemoved, err
}

type disabledRemote struct{}

func (disabledRemote) TryRemote(context.Context, string, []string) remote.Outcome {
	return remote.Outcome{Reason: remote.ReasonDisabled}
}

func (disabledRemote) Enabled() bool { return false }
