// Package browser loads pages in a real browser and captures what the code
// generators need: the rendered HTML, the title and a screenshot.
package browser

import (
	"context"
	"errors"
	"sync"

	"github.com/randalmurphal/uitestgen/pkg/tokenstore"
)

// LoadRequest describes a page load.
type LoadRequest struct {
	// URL is the page to load.
	URL string

	// CookieURL is visited first so Cookies can be set on its domain.
	// Defaults to URL.
	CookieURL string
	Cookies   []tokenstore.Cookie

	// ScreenshotPath, if set, receives a PNG of the loaded page.
	ScreenshotPath string

	// Session reuses an open browser, keeping its cookies.
	// Nil starts a new one.
	Session *Session
}

// Page is the result of a load.
type Page struct {
	HTML           string
	Title          string
	URL            string
	ScreenshotPath string

	// Session is the browser the page was loaded in. The caller owns it
	// and must Close it.
	Session *Session
}

// Loader loads pages.
type Loader interface {
	Load(ctx context.Context, req LoadRequest) (*Page, error)
}

// ErrNoURL is returned for a LoadRequest without a URL.
var ErrNoURL = errors.New("browser: no url to load")

// Session is an open browser. Close is safe to call more than once and on
// a nil Session.
type Session struct {
	once    sync.Once
	closeFn func() error
	err     error

	// handle is the implementation's browser state.
	handle any
}

// NewSession wraps an implementation handle and its cleanup function.
func NewSession(handle any, closeFn func() error) *Session {
	return &Session{handle: handle, closeFn: closeFn}
}

// Handle returns the implementation's browser state.
func (s *Session) Handle() any {
	if s == nil {
		return nil
	}
	return s.handle
}

// Close shuts the browser down.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		if s.closeFn != nil {
			s.err = s.closeFn()
		}
	})
	return s.err
}
