// Package constants defines numerical limits.
package constants

const (
	// Concurrent detail-page extractions per stream request
	ExtractGoroutines = 3

	// Search ceilings per request
	MaxSearchResults = 10
	MaxSearchPages   = 3

	// Distinct premium logins kept at once
	MaxPremiumSessions = 64

	// Requests per second toward prehraj.to
	OriginRatePerSecond = 1
)
