package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/gostremiocz/internal/cache"
	"github.com/amaumene/gostremiocz/internal/database"
	apperrors "github.com/amaumene/gostremiocz/internal/errors"
	"github.com/amaumene/gostremiocz/internal/models"
)

const testTMDBKey = "0123456789abcdef0123456789abcdef"

// fakeTMDB answers /find/{id} from a table keyed by id and language.
type fakeTMDB struct {
	srv       *httptest.Server
	mu        sync.Mutex
	requests  []string
	responses map[string]models.TMDBFindResponse
	status    int
}

func newFakeTMDB(t *testing.T) *fakeTMDB {
	t.Helper()
	f := &fakeTMDB{responses: make(map[string]models.TMDBFindResponse)}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/find/")
		lang := r.URL.Query().Get("language")

		f.mu.Lock()
		f.requests = append(f.requests, id+"|"+lang)
		status := f.status
		resp := f.responses[id+"|"+lang]
		f.mu.Unlock()

		assert.Equal(t, "imdb_id", r.URL.Query().Get("external_source"))
		assert.Equal(t, testTMDBKey, r.URL.Query().Get("api_key"))

		if status != 0 {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(models.TMDBErrorResponse{StatusCode: 7, StatusMessage: "Invalid API key"})
			return
		}
		if resp.MovieResults == nil {
			resp.MovieResults = []models.TMDBMovie{}
		}
		if resp.TVResults == nil {
			resp.TVResults = []models.TMDBTV{}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeTMDB) set(id, lang string, resp models.TMDBFindResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[id+"|"+lang] = resp
}

func (f *fakeTMDB) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newTestTMDB(f *fakeTMDB) *TMDB {
	t := NewTMDB(testTMDBKey, cache.New(100, time.Hour), nil)
	t.SetBaseURL(f.srv.URL)
	return t
}

func TestTMDBResolveMovie(t *testing.T) {
	f := newFakeTMDB(t)
	f.set("tt1234567", "cs-CZ", models.TMDBFindResponse{MovieResults: []models.TMDBMovie{
		{Title: "Testovací film", OriginalTitle: "Test Movie", ReleaseDate: "2020-05-01"},
	}})

	info, err := newTestTMDB(f).Resolve(context.Background(), models.ParseIdentifier("movie", "tt1234567"))
	require.NoError(t, err)
	assert.Equal(t, &models.TitleInfo{
		CanonicalTitle: "Test Movie",
		LocalizedTitle: "Testovací film",
		Year:           "2020",
	}, info)
	assert.Equal(t, []string{"tt1234567|cs-CZ"}, f.calls())
}

func TestTMDBFallsBackToEnglish(t *testing.T) {
	f := newFakeTMDB(t)
	f.set("tt7654321", "en-US", models.TMDBFindResponse{TVResults: []models.TMDBTV{
		{Name: "Show", OriginalName: "Show", FirstAirDate: "2011-01-10"},
	}})

	info, err := newTestTMDB(f).Resolve(context.Background(), models.ParseIdentifier("series", "tt7654321:2:5"))
	require.NoError(t, err)
	assert.Equal(t, "Show", info.LocalizedTitle)
	assert.Equal(t, "2011", info.Year)
	assert.Equal(t, 2, info.Season)
	assert.Equal(t, 5, info.Episode)
	assert.Equal(t, []string{"tt7654321|cs-CZ", "tt7654321|en-US"}, f.calls())
}

func TestTMDBMetadataNotFound(t *testing.T) {
	f := newFakeTMDB(t)

	_, err := newTestTMDB(f).Resolve(context.Background(), models.ParseIdentifier("movie", "tt0000001"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMetadataNotFound))
	assert.Len(t, f.calls(), 2)
}

func TestTMDBRejectsMalformedIDsWithoutNetwork(t *testing.T) {
	f := newFakeTMDB(t)
	tmdb := newTestTMDB(f)

	for _, id := range []string{"", "tt123456", "tt123456789", "nm1234567", "1234567", "tt12345a7", "TT1234567"} {
		_, err := tmdb.Resolve(context.Background(), models.ParseIdentifier("movie", id))
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidID), "id %q", id)
	}
	assert.Empty(t, f.calls())
}

func TestTMDBCachesTitles(t *testing.T) {
	f := newFakeTMDB(t)
	f.set("tt1234567", "cs-CZ", models.TMDBFindResponse{MovieResults: []models.TMDBMovie{{Title: "Test Movie"}}})
	tmdb := newTestTMDB(f)

	for i := 0; i < 3; i++ {
		info, err := tmdb.Resolve(context.Background(), models.ParseIdentifier("movie", "tt1234567"))
		require.NoError(t, err)
		assert.Equal(t, "Test Movie", info.CanonicalTitle)
	}
	assert.Len(t, f.calls(), 1)
}

func TestTMDBReadsPersistedTitles(t *testing.T) {
	f := newFakeTMDB(t)
	f.set("tt1234567", "cs-CZ", models.TMDBFindResponse{MovieResults: []models.TMDBMovie{{Title: "Test Movie", ReleaseDate: "2020"}}})

	db, err := database.NewBolt(filepath.Join(t.TempDir(), "titles.db"), time.Hour)
	require.NoError(t, err)
	defer db.Close()

	first := newTestTMDB(f)
	first.SetDB(db)
	_, err = first.Resolve(context.Background(), models.ParseIdentifier("movie", "tt1234567"))
	require.NoError(t, err)

	second := newTestTMDB(f)
	second.SetDB(db)
	info, err := second.Resolve(context.Background(), models.ParseIdentifier("movie", "tt1234567"))
	require.NoError(t, err)
	assert.Equal(t, "2020", info.Year)
	assert.Len(t, f.calls(), 1)
}

func TestTMDBRequiresAPIKey(t *testing.T) {
	f := newFakeTMDB(t)
	tmdb := NewTMDB("", nil, nil)
	tmdb.SetBaseURL(f.srv.URL)

	_, err := tmdb.Resolve(context.Background(), models.ParseIdentifier("movie", "tt1234567"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeAPIKeyMissing))

	_, err = tmdb.WithAPIKey("short").Resolve(context.Background(), models.ParseIdentifier("movie", "tt1234567"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfigurationInvalid))
	assert.Empty(t, f.calls())
}

func TestTMDBHTTPError(t *testing.T) {
	f := newFakeTMDB(t)
	f.mu.Lock()
	f.status = http.StatusUnauthorized
	f.mu.Unlock()

	_, err := newTestTMDB(f).Resolve(context.Background(), models.ParseIdentifier("movie", "tt1234567"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeFetchFailure))
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestTMDBWithAPIKey(t *testing.T) {
	base := NewTMDB(testTMDBKey, nil, nil)
	assert.Same(t, base, base.WithAPIKey(""))
	assert.Same(t, base, base.WithAPIKey(" "+testTMDBKey+" "))

	other := base.WithAPIKey("fedcba9876543210fedcba9876543210")
	assert.NotSame(t, base, other)
	assert.Equal(t, testTMDBKey, base.apiKey)
	assert.Equal(t, "fedcba9876543210fedcba9876543210", other.apiKey)
}

func TestTitleFromFind(t *testing.T) {
	assert.Nil(t, titleFromFind(&models.TMDBFindResponse{}))
	assert.Nil(t, titleFromFind(&models.TMDBFindResponse{MovieResults: []models.TMDBMovie{{}}}))

	info := titleFromFind(&models.TMDBFindResponse{MovieResults: []models.TMDBMovie{{OriginalTitle: "Original"}}})
	require.NotNil(t, info)
	assert.Equal(t, "Original", info.LocalizedTitle)
	assert.Empty(t, info.Year)
}
