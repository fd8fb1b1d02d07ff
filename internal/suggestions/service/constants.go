package service

import "time"

const (
	// StoreTimeout bounds a single limiter or cache round trip
	StoreTimeout = 500 * time.Millisecond

	// StatusTimeout is for health and diagnostics lookups
	StatusTimeout = 1 * time.Second
)
