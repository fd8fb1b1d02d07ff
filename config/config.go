package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	App       AppConfig
	Remote    RemoteConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Redis     RedisConfig
}

type ServerConfig struct {
	Port           string
	CORSOrigins    []string
	TrustedProxies []string // empty means X-Forwarded-For is ignored
}

type AppConfig struct {
	Environment   string
	LogLevel      string
	Version       string
	SweepSchedule string
}

type RemoteConfig struct {
	APIKey            string
	Provider          string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	RetryDelay        time.Duration
	RequestsPerSecond float64
	Burst             int
	MockMode          bool
	MinLength         int
}

type RateLimitConfig struct {
	PerMinute int
	Window    time.Duration
}

type CacheConfig struct {
	TTL      time.Duration
	Capacity int
}

type RedisConfig struct {
	URL string
}

// localOrigins are the dev servers the frontend usually runs on.
var localOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://localhost:5175",
	"http://localhost:3000",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:5174",
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "5001"),
			CORSOrigins:    corsOrigins(getEnv("CORS_ORIGIN", ""), getEnv("FRONTEND_URL", "")),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
		},
		App: AppConfig{
			Environment:   getEnv("APP_ENV", "development"),
			LogLevel:      getEnv("LOG_LEVEL", "info"),
			Version:       getEnv("APP_VERSION", "1.0.0"),
			SweepSchedule: getEnv("SWEEP_SCHEDULE", "@every 5m"),
		},
		Remote: RemoteConfig{
			APIKey:            firstEnv("REMOTE_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"),
			Provider:          getEnv("REMOTE_PROVIDER", "gemini"),
			BaseURL:           getEnv("REMOTE_BASE_URL", ""),
			Model:             getEnv("REMOTE_MODEL", ""),
			Timeout:           time.Duration(getEnvAsInt("REMOTE_TIMEOUT_SECONDS", 5)) * time.Second,
			RetryDelay:        time.Duration(getEnvAsInt("REMOTE_RETRY_DELAY_MS", 1000)) * time.Millisecond,
			RequestsPerSecond: getEnvAsFloat("REMOTE_RPS", 2),
			Burst:             getEnvAsInt("REMOTE_BURST", 4),
			MockMode:          getEnvAsBool("MOCK_MODE", false),
			MinLength:         getEnvAsInt("MIN_SUGGESTION_LENGTH", 50),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 15),
			Window:    time.Minute,
		},
		Cache: CacheConfig{
			TTL:      time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
			Capacity: getEnvAsInt("CACHE_CAPACITY", 1000),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Server.Port)
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("CACHE_CAPACITY must be positive")
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("REMOTE_TIMEOUT_SECONDS must be positive")
	}
	if c.Remote.MinLength <= 0 {
		return fmt.Errorf("MIN_SUGGESTION_LENGTH must be positive")
	}
	for _, p := range c.Server.TrustedProxies {
		if !validProxy(p) {
			return fmt.Errorf("TRUSTED_PROXIES: %q is not an IP or CIDR", p)
		}
	}
	if _, err := log.ParseLevel(c.App.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// RemoteEnabled reports whether remote suggestions should be attempted.
func (c *Config) RemoteEnabled() bool {
	return c.Remote.APIKey != "" && !c.Remote.MockMode
}

func corsOrigins(extra ...string) []string {
	seen := make(map[string]bool, len(localOrigins)+len(extra))
	out := make([]string, 0, len(localOrigins)+len(extra))
	for _, o := range append(append([]string(nil), localOrigins...), extra...) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			continue
		}
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			log.Warn("Ignoring CORS origin without http(s) scheme", "origin", o)
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	return out
}

func validProxy(p string) bool {
	if strings.Contains(p, "/") {
		_, err := netip.ParsePrefix(p)
		return err == nil
	}
	_, err := netip.ParseAddr(p)
	return err == nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warnf("Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Warnf("Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warnf("Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}
