// Package prehrajto scrapes prehraj.to search listings and detail pages and
// recovers direct media URLs from them.
package prehrajto

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amaumene/gostremiocz/pkg/httputil"
	"github.com/amaumene/gostremiocz/pkg/logger"
	"github.com/amaumene/gostremiocz/pkg/ratelimiter"
)

const (
	DefaultBaseURL    = "https://prehraj.to"
	DefaultMaxResults = 10
	DefaultMaxPages   = 3
	DefaultTimeout    = 30 * time.Second
	DefaultPace       = time.Second

	userAgent      = "kodi/prehraj.to"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	acceptLanguage = "en-US,en;cs;q=0.5"
	maxBodySize    = 8 << 20
)

// Cache is the subset of a TTL cache the client needs.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
}

// Config tunes a Client. Zero values fall back to the defaults above.
type Config struct {
	BaseURL    string
	MaxResults int
	MaxPages   int
	Timeout    time.Duration
	// Pace is the minimum spacing between two requests to the origin.
	Pace time.Duration
}

// Client talks to one prehraj.to origin. It is safe for concurrent use.
type Client struct {
	baseURL    string
	base       *url.URL
	httpClient *http.Client
	limiter    ratelimiter.RateLimiter
	cache      Cache
	logger     logger.Logger
	maxResults int
	maxPages   int
}

// New creates a client. cache may be nil.
func New(cfg Config, cache Cache, log logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Pace < 0 {
		cfg.Pace = 0
	}
	if log == nil {
		log = logger.Discard()
	}

	return &Client{
		baseURL:    base.String(),
		base:       base,
		httpClient: httputil.NewHTTPClient(cfg.Timeout),
		limiter:    ratelimiter.NewTokenBucket(1, cfg.Pace),
		cache:      cache,
		logger:     log,
		maxResults: cfg.MaxResults,
		maxPages:   cfg.MaxPages,
	}, nil
}

// BaseURL returns the origin the client scrapes.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Limiter returns the pacing limiter shared by every request to the origin.
func (c *Client) Limiter() ratelimiter.RateLimiter {
	return c.limiter
}

// fetch performs a paced GET with browser-like headers and returns the body.
func (c *Client) fetch(ctx context.Context, rawURL, referer string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Stage: StageFetch, URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Stage: StageFetch, URL: rawURL, Err: err}
	}
	setHeaders(req, referer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Stage: StageFetch, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Stage: StageFetch, URL: rawURL, Err: &HTTPStatusError{StatusCode: resp.StatusCode}}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{Stage: StageFetch, URL: rawURL, Err: err}
	}
	return body, nil
}

func setHeaders(req *http.Request, referer string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
}

// resolveURL resolves href against ref. A nil ref returns href as parsed.
func resolveURL(ref *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.IsAbs() || ref == nil {
		return u.String()
	}
	return ref.ResolveReference(u).String()
}
