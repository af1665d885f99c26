package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/randalmurphal/uitestgen/pkg/browser"
	"github.com/randalmurphal/uitestgen/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/uitestgen/pkg/flowgraph/errors"
	"github.com/randalmurphal/uitestgen/pkg/llm"
	"github.com/randalmurphal/uitestgen/pkg/tokenstore"
)

// Step names of the login-test graph.
const (
	StepCheckAuth    = "check_authentication_required"
	StepHandleAuth   = "handle_auth_and_access"
	StepLoadPage     = "load_page"
	StepGenerateCode = "generate_selenium_code"
	StepReflectCode  = "selenium_reflect_code"
	StepGenerateTest = "generate_test_case_with_report"
	StepRepairCode   = "testcase_reflect_code"
)

// Routing outcomes of the authentication check.
const (
	OutcomeAuthRequired = "auth_required"
	OutcomeSkipAuth     = "skip_auth"
)

// Loop counter names.
const (
	CounterReflect = "reflect_loop_count"
	CounterRetry   = "retry_count"
)

// steps binds the login-test step functions to their collaborators.
type steps struct {
	deps Deps
}

// checkAuthenticationRequired asks the critic whether the spec explicitly
// requires a login. An empty spec, a provider failure or an unrecognized
// reply all mean no authentication.
func (s *steps) checkAuthenticationRequired(ctx flowgraph.Context, st State) (Update, error) {
	spec := st.SpecMD
	if strings.TrimSpace(spec) == "" {
		spec = st.LoginSpec
	}
	if strings.TrimSpace(spec) == "" {
		ctx.Logger().Warn("empty spec, assuming no authentication")
		return Update{AuthenticationRequired: flowgraph.Set(false)}, nil
	}

	resp, err := s.deps.Critic.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: authCheckSystem,
		Messages:     []llm.Message{llm.UserMessage(authCheckPrompt.MustRender(map[string]string{"spec": spec}))},
		Temperature:  llm.Temperature(0),
	})
	if err != nil {
		ctx.Logger().Warn("authentication check failed, assuming none", "error", err.Error())
		return Update{AuthenticationRequired: flowgraph.Set(false)}, nil
	}

	required, recognized := parseAuthAnswer(resp.Content)
	if !recognized {
		ctx.Logger().Warn("unexpected authentication answer", "reply", resp.Content)
	}
	return Update{AuthenticationRequired: flowgraph.Set(required)}, nil
}

// parseAuthAnswer reads a True/False reply. "true" anywhere wins.
func parseAuthAnswer(reply string) (required, recognized bool) {
	answer := strings.ToLower(strings.TrimSpace(reply))
	switch {
	case strings.Contains(answer, "true"):
		return true, true
	case strings.Contains(answer, "false"):
		return false, true
	default:
		return false, false
	}
}

func authRoute(_ flowgraph.Context, st State) string {
	if st.AuthenticationRequired {
		return OutcomeAuthRequired
	}
	return OutcomeSkipAuth
}

// handleAuthAndAccess opens the protected page with the cached session
// tokens set as cookies on the redirect URL's domain.
func (s *steps) handleAuthAndAccess(ctx flowgraph.Context, st State) (Update, error) {
	if st.SpecificURL == "" {
		return Update{}, flowgraph.NewStepError("no specific_url to open", nil)
	}

	cfg := s.deps.Settings
	tokens, err := tokenstore.Resolve(ctx, s.deps.Tokens, cfg.App, cfg.Username, cfg.TokenFile, cfg.TokenTTL)
	if err != nil {
		return Update{}, flowgraph.NewStepError("load session tokens", err)
	}
	if tokens.Empty() {
		ctx.Logger().Warn("token file holds no credentials", "app", cfg.App, "username", cfg.Username)
	}

	page, err := s.deps.Loader.Load(ctx, browser.LoadRequest{
		URL:            st.SpecificURL,
		CookieURL:      st.RedirectURL,
		Cookies:        tokens.Cookies(),
		ScreenshotPath: s.artifactPath("authenticated_page.png"),
		Session:        st.Session,
	})
	if err != nil {
		return Update{}, flowgraph.NewStepError("open authenticated page", err)
	}

	ctx.Logger().Info("authenticated page loaded", "url", page.URL, "title", page.Title)
	return Update{
		BaseURL: flowgraph.Set(st.SpecificURL),
		Session: page.Session,
	}, nil
}

// loadPage renders the login page, reusing the authenticated session when
// there is one.
func (s *steps) loadPage(ctx flowgraph.Context, st State) (Update, error) {
	url := st.LoginURL
	if url == "" {
		url = st.BaseURL
	}
	if url == "" {
		return Update{}, flowgraph.NewStepError("no login_url to load", nil)
	}

	page, err := s.deps.Loader.Load(ctx, browser.LoadRequest{
		URL:            url,
		ScreenshotPath: s.artifactPath("login_page.png"),
		Session:        st.Session,
	})
	if err != nil {
		return Update{}, flowgraph.NewStepError("load login page", err)
	}

	ctx.Logger().Info("login page loaded", "url", url, "title", page.Title, "html_bytes", len(page.HTML))
	return Update{
		PageHTML:  flowgraph.Set(page.HTML),
		Title:     flowgraph.Set(page.Title),
		ImagePath: flowgraph.Set(page.ScreenshotPath),
		Session:   page.Session,
	}, nil
}

// generateSeleniumCode writes a login function for the loaded page. After a
// critique, the previous code and the latest feedback are part of the prompt.
func (s *steps) generateSeleniumCode(ctx flowgraph.Context, st State) (Update, error) {
	feedback := ""
	if n := len(st.Messages); n > 0 && st.SeleniumCode != "" {
		feedback = codeFeedbackPrompt.MustRender(map[string]string{
			"critique": st.Messages[n-1],
			"code":     st.SeleniumCode,
		})
	}

	text := codeGenPrompt.MustRender(map[string]string{
		"login_url":   st.LoginURL,
		"credentials": credentials(st),
		"spec":        st.LoginSpec,
		"html":        st.PageHTML,
		"feedback":    feedback,
	})
	resp, err := s.deps.Generator.Complete(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{llm.UserMessage(text)},
		Temperature: llm.Temperature(0.2),
	})
	if err != nil {
		return Update{}, flowgraph.NewStepError("generate selenium code", err)
	}

	code := llm.CodeBlock(resp.Content)
	if code == "" {
		return Update{}, flowgraph.NewStepError("generate selenium code",
			&fgerrors.OutputError{Message: "empty reply", Output: resp.Content})
	}

	path, err := s.writeArtifact(fmt.Sprintf("selenium_code_%d.py", st.ReflectLoopCount), code)
	if err != nil {
		return Update{SeleniumCode: flowgraph.Set(code)}, flowgraph.NewStepError("save selenium code", err)
	}
	return Update{
		SeleniumCode:     flowgraph.Set(code),
		SeleniumCodePath: flowgraph.Set(path),
	}, nil
}

func credentials(st State) string {
	if st.Email == "" && st.Password == "" {
		return "Take the username and password as arguments of the login function."
	}
	return fmt.Sprintf("username: %s\npassword: %s", st.Email, st.Password)
}

// reflectCode has the critic review the latest code. STOP ends the loop;
// anything else is a critique that sends the code back for another pass.
func (s *steps) reflectCode(ctx flowgraph.Context, st State) (Update, error) {
	unsatisfied := func(critique string) Update {
		return Update{
			ShouldReflect:    flowgraph.Set(true),
			ReflectLoopCount: flowgraph.Set(st.ReflectLoopCount + 1),
			Messages:         append(append([]string(nil), st.Messages...), critique),
		}
	}

	if strings.TrimSpace(st.SeleniumCode) == "" {
		return unsatisfied("No code was generated. Generate the complete login function."), nil
	}

	resp, err := s.deps.Critic.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: codeCritiqueSystem,
		Messages:     []llm.Message{llm.UserMessage(st.SeleniumCode)},
		Temperature:  llm.Temperature(0.2),
	})
	if err != nil {
		return Update{ShouldReflect: flowgraph.Set(false)}, flowgraph.NewStepError("review selenium code", err)
	}

	if llm.IsStop(resp.Content) {
		ctx.Logger().Info("code accepted by reviewer")
		return Update{ShouldReflect: flowgraph.Set(false)}, nil
	}

	ctx.Logger().Info("code sent back for improvement", "round", st.ReflectLoopCount+1)
	return unsatisfied(strings.TrimSpace(resp.Content)), nil
}

// generateTestCase writes a unittest file around the current code and runs it.
// The run's outcome sets status; a failure leaves its output in error for the
// repair step. An empty reply fails the step without writing or running
// anything.
func (s *steps) generateTestCase(ctx flowgraph.Context, st State) (Update, error) {
	fail := flowgraph.Set(StatusFail)

	code, err := currentCode(st)
	if err != nil {
		return Update{Status: fail}, flowgraph.NewStepError("load selenium code", err)
	}

	resp, err := s.deps.Generator.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: testGenSystem,
		Messages:     []llm.Message{llm.UserMessage(testGenPrompt.MustRender(map[string]string{"code": code}))},
		Temperature:  llm.Temperature(0),
	})
	if err != nil {
		return Update{Status: fail}, flowgraph.NewStepError("generate test case", err)
	}
	testCode := llm.CodeBlock(resp.Content)
	if testCode == "" {
		return Update{Status: fail}, flowgraph.NewStepError("generate test case",
			&fgerrors.OutputError{Message: "empty reply", Output: resp.Content})
	}

	path, err := s.writeArtifact(fmt.Sprintf("test_case_%d.py", st.RetryCount), testCode)
	if err != nil {
		return Update{Status: fail, TestCode: flowgraph.Set(testCode)}, flowgraph.NewStepError("save test case", err)
	}
	upd := Update{
		TestCode:     flowgraph.Set(testCode),
		TestFilePath: flowgraph.Set(path),
		Status:       fail,
	}

	res, err := s.deps.Tests.Run(ctx, path)
	if err != nil {
		return upd, flowgraph.NewStepError("run test case", err)
	}
	upd.TestOutput = flowgraph.Set(res.Output)

	if res.Passed {
		ctx.Logger().Info("generated test passed",
			"tests", res.Summary.Tests, "duration", res.Duration.String())
		upd.Status = flowgraph.Set(StatusSuccess)
		upd.Error = flowgraph.ClearString()
		return upd, nil
	}

	ctx.Logger().Warn("generated test failed",
		"exit_code", res.ExitCode, "failures", res.Summary.Failures, "errors", res.Summary.Errors)
	upd.Error = flowgraph.Set(res.FailureText(s.deps.Settings.FailureLimit))
	return upd, nil
}

var errNoCode = errors.New("missing selenium_code or valid selenium_code_path in state")

// currentCode prefers the file at SeleniumCodePath over SeleniumCode.
func currentCode(st State) (string, error) {
	if st.SeleniumCodePath != "" {
		data, err := os.ReadFile(st.SeleniumCodePath)
		if err == nil && len(data) > 0 {
			return string(data), nil
		}
	}
	if st.SeleniumCode != "" {
		return st.SeleniumCode, nil
	}
	return "", errNoCode
}

// repairCode asks the critic to fix the code given the failed test output.
// Every visit consumes one retry, including one with nothing to repair.
func (s *steps) repairCode(ctx flowgraph.Context, st State) (Update, error) {
	next := st.RetryCount + 1
	upd := Update{RetryCount: flowgraph.Set(next)}

	if st.Error == "" || st.SeleniumCodePath == "" {
		ctx.Logger().Info("nothing to repair", "retry", next)
		return upd, nil
	}

	prev, err := os.ReadFile(st.SeleniumCodePath)
	if err != nil {
		return upd, flowgraph.NewStepError("read previous code", err)
	}

	resp, err := s.deps.Critic.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: repairSystem,
		Messages: []llm.Message{llm.UserMessage(repairPrompt.MustRender(map[string]string{
			"code":  string(prev),
			"error": st.Error,
			"html":  st.PageHTML,
		}))},
		Temperature: llm.Temperature(0.2),
	})
	if err != nil {
		return upd, flowgraph.NewStepError("repair selenium code", err)
	}

	corrected := llm.CodeBlock(resp.Content)
	path, err := s.writeArtifact(fmt.Sprintf("corrected_selenium_code_%d.py", next), corrected)
	if err != nil {
		return upd, flowgraph.NewStepError("save corrected code", err)
	}

	ctx.Logger().Info("code repaired", "retry", next, "path", path)
	upd.SeleniumCode = flowgraph.Set(corrected)
	upd.SeleniumCodePath = flowgraph.Set(path)
	return upd, nil
}

func (s *steps) artifactPath(name string) string {
	return filepath.Join(s.deps.Settings.OutputDir, name)
}

// writeArtifact saves content under the output directory. Names carry the
// loop counter, so a re-entered step never overwrites an earlier attempt.
func (s *steps) writeArtifact(name, content string) (string, error) {
	if err := os.MkdirAll(s.deps.Settings.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := s.artifactPath(name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}
