package prehrajto

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string]interface{}
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string]interface{})}
}

func (m *mapCache) Get(key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *mapCache) Set(key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func listingHTML(rows []string, more bool) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="video-list">`)
	for _, r := range rows {
		b.WriteString(r)
	}
	b.WriteString(`</div>`)
	if more {
		b.WriteString(`<div class="pagination-more"><a href="?vp-page=2">Další</a></div>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func row(title, href, size, duration string) string {
	return fmt.Sprintf(`<div class="video"><a href="%s"><div class="info"><h3 class="title">%s</h3>`+
		`<span class="video__tag video__tag--size">%s</span><span class="video__tag video__tag--time">%s</span></div></a></div>`,
		href, title, size, duration)
}

func newTestClient(t *testing.T, srv *httptest.Server, cache Cache) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: srv.URL}, cache, nil)
	require.NoError(t, err)
	return c
}

func TestParseListing(t *testing.T) {
	base, _ := url.Parse("https://prehraj.to")
	html := listingHTML([]string{
		row("Test Movie 2020 CZ", "/video/abc", "1.2 GB", "01:45:00"),
		row("Other", "https://prehraj.to/video/def", "", ""),
	}, true)

	items, more, err := ParseListing([]byte(html), base)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, more)
	assert.Equal(t, "Test Movie 2020 CZ [1.2 GB - 01:45:00]", items[0].DisplayTitle)
	assert.Equal(t, "https://prehraj.to/video/abc", items[0].DetailURL)
	assert.Equal(t, "Other [? - ?]", items[1].DisplayTitle)
	assert.Equal(t, "https://prehraj.to/video/def", items[1].DetailURL)
}

func TestParseListingAlternateMarkup(t *testing.T) {
	base, _ := url.Parse("https://prehraj.to")
	html := `<div class="grid-x">
		<a class="video--link" href="/novy-film/123" title="Novy film">
			<h3 class="video__title">Nový film</h3>
			<div class="video__tag video__tag--size">700 MB</div>
			<div class="video__tag video__tag--time">01:30:00</div>
		</a></div>`

	items, more, err := ParseListing([]byte(html), base)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, more)
	assert.Equal(t, "Nový film [700 MB - 01:30:00]", items[0].DisplayTitle)
	assert.Equal(t, "https://prehraj.to/novy-film/123", items[0].DetailURL)
}

func TestParseListingSkipsRowsWithoutLink(t *testing.T) {
	html := listingHTML([]string{`<div class="video"><div class="info"><h3 class="title">Broken</h3></div></div>`}, false)
	items, _, err := ParseListing([]byte(html), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearchRespectsResultCap(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		page := r.URL.Query().Get("vp-page")
		var rows []string
		for i := 0; i < 8; i++ {
			rows = append(rows, row("Movie "+page+"-"+strconv.Itoa(i), "/video/"+page+"-"+strconv.Itoa(i), "1 GB", "01:00:00"))
		}
		fmt.Fprint(w, listingHTML(rows, true))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	items := c.Search(context.Background(), []string{"Movie"}, SearchOptions{Kind: "movie"})

	assert.Len(t, items, DefaultMaxResults)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestSearchRespectsPageCap(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		page := r.URL.Query().Get("vp-page")
		rows := []string{
			row("A "+page, "/video/a"+page, "1 GB", "1:00"),
			row("B "+page, "/video/b"+page, "1 GB", "1:00"),
		}
		fmt.Fprint(w, listingHTML(rows, true))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	items := c.Search(context.Background(), []string{"A"}, SearchOptions{Kind: "movie"})

	assert.Len(t, items, 2*DefaultMaxPages)
	assert.Equal(t, int32(DefaultMaxPages), atomic.LoadInt32(&requests))
}

func TestSearchStopsAtFirstQueryWithResults(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimPrefix(r.URL.Path, "/hledej/")
		mu.Lock()
		seen = append(seen, q)
		mu.Unlock()
		switch q {
		case "first":
			fmt.Fprint(w, listingHTML(nil, false))
		case "second":
			fmt.Fprint(w, listingHTML([]string{row("Hit", "/video/hit", "1 GB", "1:00")}, false))
		default:
			t.Errorf("unexpected query %q", q)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	items := c.Search(context.Background(), []string{"first", "second", "third"}, SearchOptions{Kind: "movie"})

	require.Len(t, items, 1)
	assert.Equal(t, srv.URL+"/video/hit", items[0].DetailURL)
	assert.Equal(t, []string{"first", "second"}, seen)
}

func TestSearchSurvivesPageFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/broken") {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, listingHTML([]string{row("Works", "/video/ok", "1 GB", "1:00")}, false))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	items := c.Search(context.Background(), []string{"broken", "fine"}, SearchOptions{Kind: "movie"})

	require.Len(t, items, 1)
	assert.Equal(t, "Works [1 GB - 1:00]", items[0].DisplayTitle)
}

func TestSearchUsesCache(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		fmt.Fprint(w, listingHTML([]string{row("Cached", "/video/c", "1 GB", "1:00")}, false))
	}))
	defer srv.Close()

	cache := newMapCache()
	c := newTestClient(t, srv, cache)
	opts := SearchOptions{Title: "Cached", Kind: "movie", Year: "2020"}

	first := c.Search(context.Background(), []string{"Cached 2020", "Cached"}, opts)
	second := c.Search(context.Background(), []string{"Cached 2020", "Cached"}, opts)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	_, ok := cache.Get("search:Cached:movie:0:0:2020")
	assert.True(t, ok)
}

func TestSearchDropsOtherEpisodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingHTML([]string{
			row("Show S02E04 720p", "/video/e4", "1 GB", "45:00"),
			row("Show S02E05 720p", "/video/e5", "1 GB", "45:00"),
			row("Show CZ dabing", "/video/any", "1 GB", "45:00"),
		}, false))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	items := c.Search(context.Background(), []string{"Show S02E05"}, SearchOptions{Kind: "series", Season: 2, Episode: 5})

	var urls []string
	for _, it := range items {
		urls = append(urls, strings.TrimPrefix(it.DetailURL, srv.URL))
	}
	assert.Equal(t, []string{"/video/e5", "/video/any"}, urls)
}

func TestSearchEscapesQuery(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		assert.Equal(t, "1", r.URL.Query().Get("vp-page"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		fmt.Fprint(w, listingHTML(nil, false))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	c.Search(context.Background(), []string{"Pelíšky 1999"}, SearchOptions{Kind: "movie"})

	assert.Equal(t, "/hledej/Pel%C3%AD%C5%A1ky%201999", gotPath)
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"}, nil, nil)
	assert.Error(t, err)
}
