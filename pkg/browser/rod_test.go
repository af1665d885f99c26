package browser_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/uitestgen/pkg/browser"
	"github.com/randalmurphal/uitestgen/pkg/tokenstore"
)

// requireChrome skips tests when no browser is installed.
func requireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests skipped in short mode")
	}
	if _, has := launcher.LookPath(); !has {
		t.Skip("no chrome binary found")
	}
}

func loginServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Sign in</title></head><body>
<form><input id="username"><input id="password" type="password"><button id="loginBtn">Login</button></form>
</body></html>`)
	})
	mux.HandleFunc("/account", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("sessionid")
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		fmt.Fprintf(w, `<html><head><title>Account</title></head><body>session %s</body></html>`, c.Value)
	})
	return httptest.NewServer(mux)
}

func TestRodLoader_Load(t *testing.T) {
	requireChrome(t)
	srv := loginServer()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shot := filepath.Join(t.TempDir(), "shots", "login_page.png")
	page, err := browser.NewRodLoader(browser.WithSettle(200*time.Millisecond)).Load(ctx, browser.LoadRequest{
		URL:            srv.URL + "/login",
		ScreenshotPath: shot,
	})
	require.NoError(t, err)
	defer page.Session.Close()

	assert.Equal(t, "Sign in", page.Title)
	assert.Contains(t, page.HTML, `id="loginBtn"`)
	info, err := os.Stat(shot)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRodLoader_CookiesAndSessionReuse(t *testing.T) {
	requireChrome(t)
	srv := loginServer()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	loader := browser.NewRodLoader(browser.WithSettle(0))
	authed, err := loader.Load(ctx, browser.LoadRequest{
		URL:       srv.URL + "/account",
		CookieURL: srv.URL + "/login",
		Cookies:   tokenstore.Tokens{SessionID: "sid-42"}.Cookies(),
	})
	require.NoError(t, err)
	defer authed.Session.Close()
	assert.Contains(t, authed.HTML, "session sid-42")

	again, err := loader.Load(ctx, browser.LoadRequest{URL: srv.URL + "/account", Session: authed.Session})
	require.NoError(t, err)
	assert.Same(t, authed.Session, again.Session)
	assert.Equal(t, "Account", again.Title)
}
