package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "TMDB_API_KEY", "PREHRAJTO_EMAIL", "PREHRAJTO_PASSWORD",
		"PREHRAJTO_BASE_URL", "TMDB_BASE_URL", "PORT", "LOG_LEVEL", "LOG_FILE", "DATABASE_PATH", "CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "https://prehraj.to", cfg.BaseURL)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 10, cfg.MaxResults)
	assert.Equal(t, 3, cfg.MaxPages)
	assert.Equal(t, 3, cfg.ExtractWorkers)
	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDBBaseURL)
	assert.False(t, cfg.LocalTLS)
	assert.False(t, cfg.HasPremium())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
tmdb_api_key = "file-key"
base_url = "https://mirror.example/"
cache_ttl = "90m"
max_results = 5
prehrajto_email = "user@example.com"
prehrajto_password = "secret"
`)
	t.Setenv("TMDB_API_KEY", "env-key")
	t.Setenv("PORT", "8080")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.TMDBAPIKey)
	assert.Equal(t, "https://mirror.example", cfg.BaseURL)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 5, cfg.MaxResults)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.HasPremium())
}

func TestLoadUsesConfigFileEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfig(t, `port = "9000"`))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
}

func TestLoadCacheTTLMinutes(t *testing.T) {
	clearEnv(t)
	t.Setenv("CACHE_TTL", "15")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, `base_url = "ftp://prehraj.to"`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `cache_ttl = "soon"`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `port = "http"`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `this is not toml`))
	assert.Error(t, err)
}

func TestCreateFromUserData(t *testing.T) {
	base := Default()
	base.TMDBAPIKey = "server-key"

	cfg := CreateFromUserData(map[string]interface{}{
		"TMDB_API_KEY":    " user-key ",
		"PREHRAJTO_EMAIL": "user@example.com",
		"IGNORED":         "x",
	}, &base)

	assert.Equal(t, "user-key", cfg.TMDBAPIKey)
	assert.Equal(t, "user@example.com", cfg.PrehrajtoEmail)
	assert.False(t, cfg.HasPremium())
	assert.Equal(t, "server-key", base.TMDBAPIKey, "base config is not mutated")

	cfg = CreateFromUserData(map[string]interface{}{"TMDB_API_KEY": 42}, &base)
	assert.Equal(t, "server-key", cfg.TMDBAPIKey)
}

func TestUserDataRoundTrip(t *testing.T) {
	encoded, err := EncodeUserData(map[string]interface{}{"TMDB_API_KEY": "abc"})
	require.NoError(t, err)

	decoded, err := DecodeUserData(encoded)
	require.NoError(t, err)
	assert.Equal(t, "abc", decoded["TMDB_API_KEY"])

	// Unpadded standard alphabet, as some clients strip '='.
	decoded, err = DecodeUserData("eyJUTURCX0FQSV9LRVkiOiJhYmMifQ")
	require.NoError(t, err)
	assert.Equal(t, "abc", decoded["TMDB_API_KEY"])

	_, err = DecodeUserData("%%%")
	assert.Error(t, err)
	_, err = DecodeUserData("")
	assert.Error(t, err)
}
