package prehrajto

import (
	"errors"
	"fmt"
)

const (
	StageFetch = "fetch"
	StageParse = "parse"
	StageLogin = "login"
)

var (
	// ErrNoSession is returned by premium calls made without credentials.
	ErrNoSession = errors.New("no premium session")
	// ErrLoginFailed means the origin rejected the credentials.
	ErrLoginFailed = errors.New("login rejected")
	// ErrNoRedirect means the download endpoint did not redirect to a file.
	ErrNoRedirect = errors.New("download did not redirect")
)

// Error tells which stage of a scrape failed and for which URL.
type Error struct {
	Stage string
	URL   string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("stage=%s url=%s: %v", e.Stage, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatusError reports a non-2xx answer from the origin.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}
