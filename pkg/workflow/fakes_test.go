package workflow

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/randalmurphal/uitestgen/pkg/browser"
	"github.com/randalmurphal/uitestgen/pkg/llm"
	"github.com/randalmurphal/uitestgen/pkg/testrunner"
)

const loginHTML = `<form><input id="username"><input id="password"><button id="loginBtn">Log in</button></form>`

// scripted returns a mock that answers by system prompt. Each prompt's
// replies are used in order; the last one repeats.
func scripted(replies map[string][]string) *llm.MockClient {
	var mu sync.Mutex
	next := make(map[string]int)
	return llm.NewMockClient("").WithCompleteFunc(func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		rs, ok := replies[req.SystemPrompt]
		if !ok || len(rs) == 0 {
			return nil, fmt.Errorf("unexpected system prompt %q", req.SystemPrompt)
		}
		i := next[req.SystemPrompt]
		next[req.SystemPrompt]++
		if i >= len(rs) {
			i = len(rs) - 1
		}
		return &llm.CompletionResponse{Content: rs[i]}, nil
	})
}

// callsWith returns the requests made with the given system prompt.
func callsWith(m *llm.MockClient, system string) []llm.CompletionRequest {
	var out []llm.CompletionRequest
	for _, c := range m.Calls {
		if c.SystemPrompt == system {
			out = append(out, c)
		}
	}
	return out
}

const codeReply = "```python\ndef login(driver, url, username, password):\n    driver.get(url)\n```"

const testReply = "```python\nimport unittest\n\nclass TestLogin(unittest.TestCase):\n    def test_login(self):\n        pass\n```"

// fakeLoader serves a fixed login page and counts closed sessions.
type fakeLoader struct {
	mu     sync.Mutex
	reqs   []browser.LoadRequest
	closed int
	err    error
}

func (f *fakeLoader) Load(_ context.Context, req browser.LoadRequest) (*browser.Page, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	sess := req.Session
	if sess == nil {
		sess = browser.NewSession("fake", func() error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.closed++
			return nil
		})
	}
	return &browser.Page{
		HTML:           loginHTML,
		Title:          "Login",
		URL:            req.URL,
		ScreenshotPath: req.ScreenshotPath,
		Session:        sess,
	}, nil
}

func (f *fakeLoader) requests() []browser.LoadRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]browser.LoadRequest(nil), f.reqs...)
}

func (f *fakeLoader) closedSessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeTests passes or fails runs in the scripted order; the last outcome
// repeats.
type fakeTests struct {
	mu     sync.Mutex
	passes []bool
	err    error
	paths  []string
}

const failedOutput = "test_login (test_case.TestLogin) ... FAIL\n" +
	"AssertionError: 'Dashboard' not found in 'Login'\n\n" +
	"Ran 1 test in 0.5s\n\nFAILED (failures=1)"

func (f *fakeTests) Run(_ context.Context, path string) (*testrunner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.paths)
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	passed := false
	if len(f.passes) > 0 {
		passed = f.passes[min(i, len(f.passes)-1)]
	}
	if passed {
		out := "test_login (test_case.TestLogin) ... ok\n\nRan 1 test in 0.4s\n\nOK"
		return &testrunner.Result{Output: out, Passed: true, Summary: testrunner.ParseSummary(out)}, nil
	}
	return &testrunner.Result{Output: failedOutput, ExitCode: 1, Summary: testrunner.ParseSummary(failedOutput)}, nil
}

func (f *fakeTests) runs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths)
}

func testSettings(t *testing.T) Settings {
	t.Helper()
	s := DefaultSettings()
	s.OutputDir = t.TempDir()
	s.TokenFile = ""
	s.StepTimeout = 0
	return s
}
