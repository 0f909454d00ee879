// Package constants defines timeout values used throughout the application.
package constants

import "time"

const (
	// Request timeout for the entire stream request
	RequestTimeout = 30 * time.Second

	// Per-call HTTP client timeouts
	TMDBTimeout   = 10 * time.Second
	OriginTimeout = 30 * time.Second

	// Interval of the background sweep of expired cache entries
	CacheCleanupInterval = 15 * time.Minute

	// Idle lifetime of a cached premium login
	PremiumSessionTTL = 6 * time.Hour

	// Graceful HTTP shutdown budget
	ShutdownTimeout = 10 * time.Second
)
