package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/amaumene/gostremiocz/internal/cache"
	"github.com/amaumene/gostremiocz/internal/constants"
	"github.com/amaumene/gostremiocz/internal/database"
	apperrors "github.com/amaumene/gostremiocz/internal/errors"
	"github.com/amaumene/gostremiocz/internal/models"
	"github.com/amaumene/gostremiocz/pkg/httputil"
	"github.com/amaumene/gostremiocz/pkg/logger"
	"github.com/amaumene/gostremiocz/pkg/ratelimiter"
	"github.com/amaumene/gostremiocz/pkg/security"
)

var imdbIDRegex = regexp.MustCompile(`^tt\d{7,8}$`)

// TMDB resolves IMDb identifiers to titles through /3/find. It is safe for
// concurrent use; WithAPIKey derives a per-request copy sharing every
// collaborator.
type TMDB struct {
	apiKey      string
	baseURL     string
	cache       cache.Cache
	db          database.Database
	rateLimiter ratelimiter.RateLimiter
	httpClient  *http.Client
	logger      logger.Logger
	validator   *security.APIKeyValidator
}

func NewTMDB(apiKey string, c cache.Cache, log logger.Logger) *TMDB {
	if log == nil {
		log = logger.Discard()
	}
	validator := security.NewAPIKeyValidator()

	return &TMDB{
		apiKey:      validator.SanitizeAPIKey(apiKey),
		baseURL:     constants.TMDBBaseURL,
		cache:       c,
		rateLimiter: ratelimiter.NewPerSecond(constants.TMDBRateBurst, constants.TMDBRateLimit),
		httpClient:  httputil.NewHTTPClient(constants.TMDBTimeout),
		logger:      log,
		validator:   validator,
	}
}

func (t *TMDB) SetDB(db database.Database) {
	t.db = db
}

// SetBaseURL points the client at another API root, e.g. a test server.
func (t *TMDB) SetBaseURL(baseURL string) {
	t.baseURL = strings.TrimRight(baseURL, "/")
}

// WithAPIKey returns a copy using apiKey, or t itself when apiKey is empty
// or identical.
func (t *TMDB) WithAPIKey(apiKey string) *TMDB {
	key := t.validator.SanitizeAPIKey(apiKey)
	if key == "" || key == t.apiKey {
		return t
	}
	clone := *t
	clone.apiKey = key
	return &clone
}

// Resolve returns the title of id. Malformed identifiers fail before any
// network call; identifiers unknown in both locales fail with
// METADATA_NOT_FOUND.
func (t *TMDB) Resolve(ctx context.Context, id models.MediaIdentifier) (*models.TitleInfo, error) {
	if !imdbIDRegex.MatchString(id.RawID) {
		return nil, apperrors.NewInvalidIDError(id.RawID)
	}

	cacheKey := id.CacheKey()
	if t.cache != nil {
		if data, found := t.cache.Get(cacheKey); found {
			if info, ok := data.(*models.TitleInfo); ok {
				t.logger.Debugf("[TMDB] cache hit for %s", cacheKey)
				return info, nil
			}
		}
	}

	if t.db != nil {
		if rec, err := t.db.GetTitle(cacheKey); err != nil {
			t.logger.Warnf("[TMDB] failed to read stored title: %v", err)
		} else if rec != nil {
			info := rec.Info
			t.setCache(cacheKey, &info)
			return &info, nil
		}
	}

	if t.apiKey == "" {
		return nil, apperrors.NewAPIKeyMissingError("TMDB")
	}
	if !t.validator.IsValidTMDBKey(t.apiKey) {
		t.logger.Errorf("[TMDB] failed to make API request: invalid API key format (key: %s)", t.validator.MaskAPIKey(t.apiKey))
		return nil, apperrors.NewConfigurationError("invalid TMDB API key format", nil)
	}

	info, err := t.find(ctx, id, constants.TMDBPrimaryLocale)
	if err != nil {
		return nil, err
	}
	if info == nil {
		t.logger.Debugf("[TMDB] no %s title for %s, retrying with %s", constants.TMDBPrimaryLocale, id.RawID, constants.TMDBFallbackLocale)
		if info, err = t.find(ctx, id, constants.TMDBFallbackLocale); err != nil {
			return nil, err
		}
	}
	if info == nil {
		return nil, apperrors.NewMetadataNotFoundError(id.RawID)
	}

	info.Season = id.Season
	info.Episode = id.Episode
	t.logger.Infof("[TMDB] %s resolved to %q (%s)", id, info.LocalizedTitle, info.Year)

	t.setCache(cacheKey, info)
	if t.db != nil {
		if err := t.db.StoreTitle(cacheKey, *info); err != nil {
			t.logger.Errorf("[TMDB] failed to store title: %v", err)
		}
	}
	return info, nil
}

// find performs one lookup. A nil TitleInfo with nil error means the answer
// held no usable title in that locale.
func (t *TMDB) find(ctx context.Context, id models.MediaIdentifier, locale string) (*models.TitleInfo, error) {
	if err := t.rateLimiter.Wait(ctx); err != nil {
		return nil, apperrors.NewTimeoutError("TMDB rate limiter")
	}

	query := url.Values{
		"api_key":         {t.apiKey},
		"external_source": {"imdb_id"},
		"language":        {locale},
	}
	endpoint := fmt.Sprintf("%s/find/%s?%s", t.baseURL, url.PathEscape(id.RawID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewFetchError("build TMDB request", err)
	}
	req.Header.Set("Accept", "application/json")

	t.logger.Debugf("[TMDB] fetching info for %s (%s)", id.RawID, locale)
	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewTimeoutError("TMDB find")
		}
		return nil, apperrors.NewFetchError("failed to fetch TMDB data", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr models.TMDBErrorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(body, &apiErr)
		return nil, apperrors.NewFetchError(
			fmt.Sprintf("TMDB API error: status %d %s", resp.StatusCode, apiErr.StatusMessage), nil)
	}

	var findResp models.TMDBFindResponse
	if err := json.NewDecoder(resp.Body).Decode(&findResp); err != nil {
		return nil, apperrors.NewParseError("failed to decode TMDB response", err)
	}
	return titleFromFind(&findResp), nil
}

func titleFromFind(resp *models.TMDBFindResponse) *models.TitleInfo {
	var localized, canonical, date string
	switch {
	case len(resp.MovieResults) > 0:
		m := resp.MovieResults[0]
		localized, canonical, date = m.Title, m.OriginalTitle, m.ReleaseDate
	case len(resp.TVResults) > 0:
		tv := resp.TVResults[0]
		localized, canonical, date = tv.Name, tv.OriginalName, tv.FirstAirDate
	default:
		return nil
	}

	localized = strings.TrimSpace(localized)
	canonical = strings.TrimSpace(canonical)
	if canonical == "" {
		canonical = localized
	}
	if localized == "" {
		localized = canonical
	}
	if localized == "" {
		return nil
	}

	info := &models.TitleInfo{CanonicalTitle: canonical, LocalizedTitle: localized}
	if len(date) >= 4 {
		info.Year = date[:4]
	}
	return info
}

func (t *TMDB) setCache(key string, info *models.TitleInfo) {
	if t.cache != nil {
		t.cache.Set(key, info)
	}
}
