// Package constants defines application-wide constants and default values.
package constants

const (
	// Addon metadata
	AddonID          = "org.stremio.prehrajto"
	AddonVersion     = "1.1.0"
	AddonName        = "Přehraj.to"
	AddonDescription = "Streamy z prehraj.to"
	AddonLogo        = "https://stremio.com/website/stremio-logo.png"

	// Default configuration values
	DefaultPort       = "10000"
	DefaultLogLevel   = "info"
	DefaultConfigFile = "config.toml"
	DefaultDBPath     = "data/prehrajto.db"

	// Cache settings
	DefaultCacheSize = 1000
	DefaultCacheTTL  = 60 // minutes

	// TMDB
	TMDBBaseURL        = "https://api.themoviedb.org/3"
	TMDBPrimaryLocale  = "cs-CZ"
	TMDBFallbackLocale = "en-US"
	TMDBRateLimit      = 20 // requests per second
	TMDBRateBurst      = 5  // burst capacity

	// Subtitles found on detail pages are Czech unless stated otherwise
	DefaultSubtitleLang = "cs"
)

// SupportedTypes lists the Stremio content types the addon answers.
var SupportedTypes = []string{"movie", "series"}
