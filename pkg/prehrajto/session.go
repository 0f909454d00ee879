package prehrajto

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/amaumene/gostremiocz/pkg/httputil"
	"github.com/amaumene/gostremiocz/pkg/ratelimiter"
)

// Credentials are the static site account used for premium downloads.
type Credentials struct {
	Email    string
	Password string
}

// Empty reports whether no credentials were configured.
func (c Credentials) Empty() bool {
	return c.Email == "" || c.Password == ""
}

// Session is an optional logged-in capability. A nil *Session means
// anonymous extraction only. Login happens lazily on first use and is
// repeated after a failed download.
type Session struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	limiter    ratelimiter.RateLimiter

	mu       sync.Mutex
	loggedIn bool
}

// NewSession returns nil when creds are empty. limiter may be shared with a
// Client so premium and anonymous requests are paced together.
func NewSession(baseURL string, creds Credentials, limiter ratelimiter.RateLimiter, timeout time.Duration) (*Session, error) {
	if creds.Empty() {
		return nil, nil
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if limiter == nil {
		limiter = ratelimiter.NewTokenBucket(1, DefaultPace)
	}
	hc, err := httputil.NewSessionClient(timeout)
	if err != nil {
		return nil, err
	}
	return &Session{
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		httpClient: hc,
		limiter:    limiter,
	}, nil
}

// Authenticated reports whether premium requests can be attempted.
func (s *Session) Authenticated() bool {
	return s != nil && !s.creds.Empty()
}

// Login posts the credentials to the site's login form.
func (s *Session) Login(ctx context.Context) error {
	if !s.Authenticated() {
		return ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginLocked(ctx)
}

func (s *Session) loginLocked(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return &Error{Stage: StageLogin, URL: s.baseURL, Err: err}
	}

	form := url.Values{
		"email":    {s.creds.Email},
		"password": {s.creds.Password},
		"remember": {"on"},
		"_submit":  {"Přihlásit"},
		"_do":      {"login-loginForm-submit"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/", strings.NewReader(form.Encode()))
	if err != nil {
		return &Error{Stage: StageLogin, URL: s.baseURL, Err: err}
	}
	setHeaders(req, s.baseURL+"/")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &Error{Stage: StageLogin, URL: s.baseURL, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case isRedirect(resp.StatusCode):
		s.loggedIn = true
		return nil
	case resp.StatusCode == http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		// A rejected login re-renders the form.
		if strings.Contains(string(body), "loginForm-submit") {
			return &Error{Stage: StageLogin, URL: s.baseURL, Err: ErrLoginFailed}
		}
		s.loggedIn = true
		return nil
	default:
		return &Error{Stage: StageLogin, URL: s.baseURL, Err: &HTTPStatusError{StatusCode: resp.StatusCode}}
	}
}

// DownloadURL asks the site for the premium download of a detail page and
// returns the redirect target.
func (s *Session) DownloadURL(ctx context.Context, detailURL string) (string, error) {
	if !s.Authenticated() {
		return "", ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loggedIn {
		if err := s.loginLocked(ctx); err != nil {
			return "", err
		}
	}

	target, err := s.downloadLocked(ctx, detailURL)
	if err != nil {
		// Force a fresh login next time; the cookie may have expired.
		s.loggedIn = false
	}
	return target, err
}

func (s *Session) downloadLocked(ctx context.Context, detailURL string) (string, error) {
	downloadURL, err := withQuery(detailURL, "do", "download")
	if err != nil {
		return "", &Error{Stage: StageFetch, URL: detailURL, Err: err}
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", &Error{Stage: StageFetch, URL: downloadURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", &Error{Stage: StageFetch, URL: downloadURL, Err: err}
	}
	setHeaders(req, detailURL)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &Error{Stage: StageFetch, URL: downloadURL, Err: err}
	}
	defer resp.Body.Close()

	loc := resp.Header.Get("Location")
	if !isRedirect(resp.StatusCode) || loc == "" {
		return "", &Error{Stage: StageFetch, URL: downloadURL, Err: ErrNoRedirect}
	}
	target, err := resp.Request.URL.Parse(loc)
	if err != nil {
		return "", &Error{Stage: StageParse, URL: downloadURL, Err: err}
	}
	return target.String(), nil
}

func withQuery(rawURL, key, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func isRedirect(code int) bool {
	return code >= 300 && code < 400
}
