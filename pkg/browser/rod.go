package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodLoader loads pages in Chrome through the DevTools protocol.
type RodLoader struct {
	headless   bool
	bin        string
	controlURL string
	settle     time.Duration
}

// Compile-time interface check.
var _ Loader = (*RodLoader)(nil)

// RodOption configures a RodLoader.
type RodOption func(*RodLoader)

// WithHeadless toggles headless mode. Default: true.
func WithHeadless(h bool) RodOption {
	return func(l *RodLoader) { l.headless = h }
}

// WithBrowserBin sets the Chrome binary. Default: auto-detected.
func WithBrowserBin(path string) RodOption {
	return func(l *RodLoader) { l.bin = path }
}

// WithControlURL connects to an already running browser instead of
// launching one.
func WithControlURL(u string) RodOption {
	return func(l *RodLoader) { l.controlURL = u }
}

// WithSettle sets how long to wait for the DOM to go idle after load.
// Default: 2s.
func WithSettle(d time.Duration) RodOption {
	return func(l *RodLoader) { l.settle = d }
}

// NewRodLoader creates a loader.
func NewRodLoader(opts ...RodOption) *RodLoader {
	l := &RodLoader{headless: true, settle: 2 * time.Second}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// rodHandle is the Session handle of a RodLoader browser.
type rodHandle struct {
	browser *rod.Browser
	page    *rod.Page
}

// Load implements Loader.
func (l *RodLoader) Load(ctx context.Context, req LoadRequest) (*Page, error) {
	if req.URL == "" {
		return nil, ErrNoURL
	}

	session := req.Session
	h, ok := session.Handle().(*rodHandle)
	if !ok {
		var err error
		session, h, err = l.open()
		if err != nil {
			return nil, err
		}
	}

	page, err := l.load(h.page.Context(ctx), req)
	if err != nil {
		if req.Session == nil {
			_ = session.Close()
		}
		return nil, err
	}
	page.Session = session
	return page, nil
}

func (l *RodLoader) open() (*Session, *rodHandle, error) {
	var lnch *launcher.Launcher
	controlURL := l.controlURL
	if controlURL == "" {
		lnch = launcher.New().Headless(l.headless).Leakless(false)
		if l.bin != "" {
			lnch = lnch.Bin(l.bin)
		}
		u, err := lnch.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if lnch != nil {
			lnch.Kill()
		}
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		if lnch != nil {
			lnch.Kill()
		}
		return nil, nil, fmt.Errorf("open tab: %w", err)
	}

	h := &rodHandle{browser: b, page: page}
	return NewSession(h, func() error {
		err := b.Close()
		if lnch != nil {
			lnch.Kill()
			lnch.Cleanup()
		}
		return err
	}), h, nil
}

func (l *RodLoader) load(p *rod.Page, req LoadRequest) (*Page, error) {
	if len(req.Cookies) > 0 {
		cookieURL := req.CookieURL
		if cookieURL == "" {
			cookieURL = req.URL
		}
		if err := navigate(p, cookieURL); err != nil {
			return nil, err
		}
		params := make([]*proto.NetworkCookieParam, 0, len(req.Cookies))
		for _, c := range req.Cookies {
			params = append(params, &proto.NetworkCookieParam{Name: c.Name, Value: c.Value, URL: cookieURL})
		}
		if err := p.SetCookies(params); err != nil {
			return nil, fmt.Errorf("set cookies: %w", err)
		}
	}

	if err := navigate(p, req.URL); err != nil {
		return nil, err
	}
	if l.settle > 0 {
		// A page that never settles is still captured as it is.
		_ = p.Timeout(l.settle).WaitDOMStable(l.settle/4, 0)
	}

	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	info, err := p.Info()
	if err != nil {
		return nil, fmt.Errorf("read page info: %w", err)
	}

	out := &Page{HTML: html, Title: info.Title, URL: info.URL}
	if req.ScreenshotPath != "" {
		if err := screenshot(p, req.ScreenshotPath); err != nil {
			return nil, err
		}
		out.ScreenshotPath = req.ScreenshotPath
	}
	return out, nil
}

func navigate(p *rod.Page, url string) error {
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

func screenshot(p *rod.Page, path string) error {
	img, err := p.Screenshot(false, nil)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}
