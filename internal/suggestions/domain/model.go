package domain

import "time"

// SuggestionCount is the number of suggestions every response carries
const SuggestionCount = 3

// Engine labels reported in SuggestionMeta.Engine
const (
	EngineRemote   = "remote"   // all suggestions came from the remote model
	EngineHybrid   = "hybrid"   // remote suggestions topped up from templates
	EngineTemplate = "template" // template engine only
)

// SuggestionRequest is one inbound call to the suggestion pipeline
type SuggestionRequest struct {
	PromptText string
	Tags       []string
	ClientID   string // caller address, used for rate limiting
}

// SuggestionMeta describes where the suggestions came from
type SuggestionMeta struct {
	UsedRemote    bool   `json:"usedRemote"`
	RemoteCount   int    `json:"remoteCount"`
	FallbackCount int    `json:"fallbackCount"`
	Engine        string `json:"engine"`
	Category      string `json:"category,omitempty"`
	Cached        bool   `json:"cached"`
}

// SuggestionResult is the payload returned to callers and stored in the cache
type SuggestionResult struct {
	Suggestions []string       `json:"suggestions"`
	Meta        SuggestionMeta `json:"meta"`
}

// CacheEntry is a stored result plus the time it was produced
type CacheEntry struct {
	Result    SuggestionResult `json:"result"`
	CreatedAt time.Time        `json:"created_at"`
}

// Fresh reports whether the entry is still valid at now for the given TTL
func (e CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) < ttl
}

// Clone returns a copy that shares no slices with r
func (r SuggestionResult) Clone() SuggestionResult {
	out := r
	out.Suggestions = append([]string(nil), r.Suggestions...)
	return out
}
