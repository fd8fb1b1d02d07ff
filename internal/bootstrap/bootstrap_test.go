package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptpal/promptpal-backend/config"
	"github.com/promptpal/promptpal-backend/internal/suggestions/cache"
	"github.com/promptpal/promptpal-backend/internal/suggestions/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "5001", CORSOrigins: []string{"http://localhost:5173"}},
		App:    config.AppConfig{Environment: "test", LogLevel: "info", Version: "1.2.3"},
		Remote: config.RemoteConfig{
			Provider:   "gemini",
			Timeout:    time.Second,
			RetryDelay: time.Millisecond,
			MinLength:  50,
		},
		RateLimit: config.RateLimitConfig{PerMinute: 15, Window: time.Minute},
		Cache:     config.CacheConfig{TTL: time.Hour, Capacity: 100},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	SetGinMode("test")

	s, err := BuildSuggestions(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return BuildRouter(RouterDeps{
		ServiceName:    "promptpal",
		Version:        cfg.App.Version,
		CORSOrigins:    cfg.Server.CORSOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		Diag:           s.DiagInfo(cfg),
		Service:        s.Service,
		Metrics:        s.Metrics,
	})
}

func postSuggest(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_SuggestBothPaths(t *testing.T) {
	r := newTestRouter(t, testConfig())

	for _, path := range []string{"/suggest", "/api/v1/suggest"} {
		w := postSuggest(r, path, `{"promptText":"explain how neural networks work","tags":["ai"]}`)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

		var res domain.SuggestionResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Len(t, res.Suggestions, 3)
		assert.Equal(t, domain.EngineTemplate, res.Meta.Engine)
	}
}

func TestRouter_RateLimitAcrossPaths(t *testing.T) {
	r := newTestRouter(t, testConfig())

	for i := 0; i < 15; i++ {
		path := "/suggest"
		if i%2 == 1 {
			path = "/api/v1/suggest"
		}
		w := postSuggest(r, path, `{"promptText":"plan a product launch"}`)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := postSuggest(r, "/suggest", `{"promptText":"plan a product launch"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded, try again later"}`, w.Body.String())
}

func postFrom(r http.Handler, remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/suggest", strings.NewReader(`{"promptText":"plan a product launch"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_ForwardedForIgnoredByDefault(t *testing.T) {
	r := newTestRouter(t, testConfig())

	for i := 0; i < 15; i++ {
		w := postFrom(r, "203.0.113.5:40000", fmt.Sprintf("198.51.100.%d", i+1))
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := postFrom(r, "203.0.113.5:40000", "198.51.100.99")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRouter_ForwardedForFromTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.Server.TrustedProxies = []string{"203.0.113.0/24"}
	r := newTestRouter(t, cfg)

	for i := 0; i < 20; i++ {
		w := postFrom(r, "203.0.113.5:40000", fmt.Sprintf("198.51.100.%d", i+1))
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	// one forwarded client is still limited
	for i := 0; i < 14; i++ {
		require.Equal(t, http.StatusOK, postFrom(r, "203.0.113.5:40000", "198.51.100.1").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, postFrom(r, "203.0.113.5:40000", "198.51.100.1").Code)
}

func TestRouter_NotFound(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, w.Body.String())
}

func TestRouter_HealthDiagMetrics(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "disabled", health["remoteMode"])
	assert.Equal(t, cache.BackendMemory, health["cacheBackend"])
	assert.Equal(t, "1.2.3", health["version"])
	assert.Equal(t, float64(0), health["trackedClients"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "PromptPal API is running!")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/diag", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"environment":"test"`)

	postSuggest(r, "/suggest", `{"promptText":"write a story"}`)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "promptpal_suggest_requests_total")
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/suggest", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBuildSuggestions_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis.URL = "redis://" + mr.Addr()

	s, err := BuildSuggestions(context.Background(), cfg)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, cache.BackendRedis, s.Backend)
	assert.Equal(t, cache.BackendRedis, s.Service.CacheBackend())

	res, err := s.Service.Suggest(context.Background(), domain.SuggestionRequest{
		PromptText: "teach me about photosynthesis",
		ClientID:   "198.51.100.7",
	})
	require.NoError(t, err)
	assert.Len(t, res.Suggestions, 3)
	assert.Equal(t, 1, s.Service.CacheSize(context.Background()))
}

func TestOpenRedis_Errors(t *testing.T) {
	_, err := OpenRedis(context.Background(), RedisOptions{})
	assert.Error(t, err)

	_, err = OpenRedis(context.Background(), RedisOptions{URL: "not-a-url"})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = OpenRedis(context.Background(), RedisOptions{URL: "redis://" + addr, PingTO: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestBuildSuggestions_MockModeDisablesRemote(t *testing.T) {
	cfg := testConfig()
	cfg.Remote.APIKey = "k"
	cfg.Remote.MockMode = true

	s, err := BuildSuggestions(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, s.Service.RemoteEnabled())

	cfg.Remote.MockMode = false
	s, err = BuildSuggestions(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, s.Service.RemoteEnabled())
	assert.Equal(t, "gemini-2.0-flash", s.DiagInfo(cfg).RemoteModel)
}
