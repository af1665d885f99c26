package errors

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPError is a non-success reply from a provider or a raw HTTP fetch.
type HTTPError struct {
	StatusCode int
	Message    string
	Endpoint   string

	// RetryAfter is the server's requested delay from a Retry-After
	// header. Zero when the reply carried none.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("HTTP %d at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewHTTPError builds an HTTPError from resp, reading its Retry-After
// header.
func NewHTTPError(resp *http.Response, endpoint string) *HTTPError {
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		Endpoint:   endpoint,
		RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
}

// ParseRetryAfter reads a Retry-After value, given either in seconds or as
// an HTTP date relative to now. Unparseable or past values yield zero.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	at, err := http.ParseTime(v)
	if err != nil || !at.After(now) {
		return 0
	}
	return at.Sub(now)
}

// OutputError indicates a provider replied with something that cannot be
// used, such as a reply without a code block.
type OutputError struct {
	Provider string
	Message  string
	// Output is the raw reply, kept for reflection prompts.
	Output string
}

// Error implements the error interface.
func (e *OutputError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("unusable %s output: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("unusable output: %s", e.Message)
}
