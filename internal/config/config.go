// Package config provides configuration management for the application.
package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/amaumene/gostremiocz/internal/constants"
)

// Config holds the application configuration.
// Values come from defaults, then an optional TOML file, then the environment.
type Config struct {
	// API keys and credentials
	TMDBAPIKey        string `toml:"tmdb_api_key" json:"TMDB_API_KEY"`
	PrehrajtoEmail    string `toml:"prehrajto_email" json:"PREHRAJTO_EMAIL"`
	PrehrajtoPassword string `toml:"prehrajto_password" json:"PREHRAJTO_PASSWORD"`

	// TMDBBaseURL points the title resolver at a TMDB-compatible API.
	TMDBBaseURL string `toml:"tmdb_base_url" json:"-"`

	// Origin
	BaseURL        string `toml:"base_url" json:"PREHRAJTO_BASE_URL"`
	MaxResults     int    `toml:"max_results" json:"-"`
	MaxPages       int    `toml:"max_pages" json:"-"`
	RatePerSecond  int    `toml:"rate_per_second" json:"-"`
	ExtractWorkers int    `toml:"extract_workers" json:"-"`

	// Server
	Port     string `toml:"port" json:"-"`
	LogLevel string `toml:"log_level" json:"-"`
	LogFile  string `toml:"log_file" json:"-"`
	// LocalTLS serves HTTPS with a local-ip.sh certificate.
	LocalTLS bool   `toml:"local_tls" json:"-"`
	CertDir  string `toml:"cert_dir" json:"-"`

	// Storage settings
	DatabasePath string `toml:"database_path" json:"-"`
	CacheSize    int    `toml:"cache_size" json:"-"`
	// CacheTTLRaw accepts a Go duration ("90m") or a number of minutes.
	CacheTTLRaw string        `toml:"cache_ttl" json:"-"`
	CacheTTL    time.Duration `toml:"-" json:"-"`
}

// Default returns a configuration populated with built-in values.
func Default() Config {
	return Config{
		TMDBBaseURL:    constants.TMDBBaseURL,
		BaseURL:        "https://prehraj.to",
		MaxResults:     constants.MaxSearchResults,
		MaxPages:       constants.MaxSearchPages,
		RatePerSecond:  constants.OriginRatePerSecond,
		ExtractWorkers: constants.ExtractGoroutines,
		Port:           constants.DefaultPort,
		LogLevel:       constants.DefaultLogLevel,
		DatabasePath:   constants.DefaultDBPath,
		CacheSize:      constants.DefaultCacheSize,
		CacheTTL:       time.Duration(constants.DefaultCacheTTL) * time.Minute,
	}
}

// Load reads the TOML file at path (CONFIG_FILE or config.toml when empty),
// overlays environment variables and validates the result. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getEnvOrDefault("CONFIG_FILE", constants.DefaultConfigFile)
	}
	if err := cfg.loadFromFile(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) loadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(c); err != nil {
		return fmt.Errorf("parse %s: %w", filename, err)
	}
	return nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	setString(&c.TMDBAPIKey, "TMDB_API_KEY")
	setString(&c.PrehrajtoEmail, "PREHRAJTO_EMAIL")
	setString(&c.PrehrajtoPassword, "PREHRAJTO_PASSWORD")
	setString(&c.TMDBBaseURL, "TMDB_BASE_URL")
	setString(&c.BaseURL, "PREHRAJTO_BASE_URL")
	setString(&c.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFile, "LOG_FILE")
	setString(&c.DatabasePath, "DATABASE_PATH")
	setString(&c.CacheTTLRaw, "CACHE_TTL")
}

// Validate checks if the configuration is valid.
// Sets default values for missing optional fields.
func (c *Config) Validate() error {
	def := Default()

	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute http(s) URL", c.BaseURL)
	}

	c.TMDBBaseURL = strings.TrimRight(strings.TrimSpace(c.TMDBBaseURL), "/")
	if c.TMDBBaseURL == "" {
		c.TMDBBaseURL = def.TMDBBaseURL
	}

	if c.CacheTTLRaw != "" {
		ttl, err := parseTTL(c.CacheTTLRaw)
		if err != nil {
			return fmt.Errorf("cache_ttl: %w", err)
		}
		c.CacheTTL = ttl
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}

	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	if c.MaxPages <= 0 {
		c.MaxPages = def.MaxPages
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = def.RatePerSecond
	}
	if c.ExtractWorkers <= 0 {
		c.ExtractWorkers = def.ExtractWorkers
	}
	if c.CacheSize <= 0 {
		c.CacheSize = def.CacheSize
	}
	if c.Port == "" {
		c.Port = def.Port
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("port %q is not a number", c.Port)
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}

	// TMDB_API_KEY is optional here, it can arrive per request.
	return nil
}

// HasPremium reports whether site credentials are configured.
func (c *Config) HasPremium() bool {
	return c.PrehrajtoEmail != "" && c.PrehrajtoPassword != ""
}

// CreateFromUserData creates a config from user-provided data and existing config.
// User data takes precedence over base config values.
func CreateFromUserData(userConfig map[string]interface{}, baseConfig *Config) *Config {
	cfg := Default()
	if baseConfig != nil {
		cfg = *baseConfig
	}

	cfg.applyUserConfig(userConfig)
	if err := cfg.Validate(); err != nil && baseConfig != nil {
		// A bad override must not break the server-wide settings.
		cfg = *baseConfig
	}
	return &cfg
}

// applyUserConfig applies user-provided configuration overrides.
func (c *Config) applyUserConfig(userConfig map[string]interface{}) {
	for key, dst := range map[string]*string{
		"TMDB_API_KEY":       &c.TMDBAPIKey,
		"PREHRAJTO_EMAIL":    &c.PrehrajtoEmail,
		"PREHRAJTO_PASSWORD": &c.PrehrajtoPassword,
	} {
		if val, ok := userConfig[key]; ok {
			if str, ok := val.(string); ok && strings.TrimSpace(str) != "" {
				*dst = strings.TrimSpace(str)
			}
		}
	}
}

// DecodeUserData decodes the base64 JSON configuration path segment.
// Both the standard and URL-safe alphabets are accepted, padded or not.
func DecodeUserData(encoded string) (map[string]interface{}, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, errors.New("empty configuration")
	}

	var data []byte
	var err error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding,
	} {
		if data, err = enc.DecodeString(encoded); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	var userConfig map[string]interface{}
	if err := json.Unmarshal(data, &userConfig); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	return userConfig, nil
}

// EncodeUserData is the inverse of DecodeUserData.
func EncodeUserData(userConfig map[string]interface{}) (string, error) {
	data, err := json.Marshal(userConfig)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

func parseTTL(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if minutes, err := strconv.Atoi(raw); err == nil {
		return time.Duration(minutes) * time.Minute, nil
	}
	return time.ParseDuration(raw)
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

// getEnvOrDefault returns environment variable value or default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
