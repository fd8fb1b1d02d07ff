// Package cache memoizes suggestion results by request fingerprint.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/promptpal/promptpal-backend/internal/suggestions/domain"
)

const (
	DefaultTTL      = time.Hour
	DefaultCapacity = 1000
)

// Backend names reported by Cache.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Cache stores results for a fixed TTL. Implementations are safe for
// concurrent use.
type Cache interface {
	// Get returns the result stored under fingerprint if it is still fresh.
	Get(ctx context.Context, fingerprint string) (*domain.SuggestionResult, bool, error)
	// Put stores result under fingerprint, stamped with the current time.
	Put(ctx context.Context, fingerprint string, result domain.SuggestionResult) error
	// Len returns the number of stored entries, fresh or not.
	Len(ctx context.Context) (int, error)
	// Sweep removes expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
	// Backend names the storage in use.
	Backend() string
}

// Clock returns the current time. Tests substitute a fake one.
type Clock func() time.Time

const sep = "\x1f"

// Fingerprint hashes the prompt text together with the sorted tags, so tag
// order never changes the key while any change to the prompt does.
func Fingerprint(promptText string, tags []string) string {
	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(promptText))
	h.Write([]byte(sep))
	h.Write([]byte(strings.Join(sorted, sep)))
	return hex.EncodeToString(h.Sum(nil))
}
