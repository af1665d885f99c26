package workflow

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/randalmurphal/uitestgen/pkg/browser"
	"github.com/randalmurphal/uitestgen/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/uitestgen/pkg/flowgraph/errors"
	"github.com/randalmurphal/uitestgen/pkg/llm"
	"github.com/randalmurphal/uitestgen/pkg/testrunner"
	"github.com/randalmurphal/uitestgen/pkg/tokenstore"
)

// Deps are the collaborators the workflow steps call.
type Deps struct {
	// Generator writes code, tests and specs.
	Generator llm.Client
	// Critic checks authentication, reviews code and repairs it.
	Critic llm.Client

	Loader browser.Loader
	Tests  testrunner.Runner
	// Tokens caches session tokens. Nil uses an in-memory store.
	Tokens tokenstore.Store

	// HTTP fetches READMEs. Nil uses a client with a 30s timeout.
	HTTP *http.Client
	// ReadmeBaseURL replaces DefaultReadmeBaseURL when set.
	ReadmeBaseURL string
	// FetchRetry governs README fetches.
	FetchRetry fgerrors.RetryConfig

	Settings Settings
}

// ErrMissingDependency is returned when a graph is built without a
// collaborator one of its steps needs.
var ErrMissingDependency = errors.New("workflow: missing dependency")

func (d Deps) withDefaults() Deps {
	if d.Tokens == nil {
		d.Tokens = tokenstore.NewMemoryStore()
	}
	if d.HTTP == nil {
		d.HTTP = &http.Client{Timeout: 30 * time.Second}
	}
	if d.FetchRetry.MaxAttempts == 0 {
		d.FetchRetry = fgerrors.DefaultRetry
	}
	if d.Settings.OutputDir == "" {
		d.Settings.OutputDir = DefaultSettings().OutputDir
	}
	return d
}

func (d Deps) require(names ...string) error {
	var errs []error
	for _, name := range names {
		missing := false
		switch name {
		case "generator":
			missing = d.Generator == nil
		case "critic":
			missing = d.Critic == nil
		case "loader":
			missing = d.Loader == nil
		case "tests":
			missing = d.Tests == nil
		}
		if missing {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingDependency, name))
		}
	}
	return errors.Join(errs...)
}

// NewLoginTestGraph builds the graph that generates, reviews, tests and
// repairs a login test:
//
//	check_authentication_required -(auth_required)-> handle_auth_and_access -> load_page
//	check_authentication_required -(skip_auth)-> load_page
//	load_page -> generate_selenium_code -> selenium_reflect_code
//	selenium_reflect_code -(continue)-> generate_selenium_code
//	selenium_reflect_code -(done)-> generate_test_case_with_report
//	generate_test_case_with_report -(continue)-> testcase_reflect_code -> generate_test_case_with_report
//	generate_test_case_with_report -(done)-> END
//
// The review loop ends when the critic answers STOP or after
// MaxCodeReflections rounds; the repair loop ends when the test passes or
// after MaxTestRetries repairs.
func NewLoginTestGraph(deps Deps) (*flowgraph.CompiledGraph[State, Update], error) {
	if err := deps.require("generator", "critic", "loader", "tests"); err != nil {
		return nil, err
	}
	s := &steps{deps: deps.withDefaults()}
	cfg := s.deps.Settings

	return flowgraph.NewGraph[State, Update]().
		AddNode(StepCheckAuth, s.checkAuthenticationRequired).
		AddNode(StepHandleAuth, s.handleAuthAndAccess).
		AddNode(StepLoadPage, s.loadPage).
		AddNode(StepGenerateCode, s.generateSeleniumCode).
		AddNode(StepReflectCode, s.reflectCode, flowgraph.Increments(CounterReflect)).
		AddNode(StepGenerateTest, s.generateTestCase).
		AddNode(StepRepairCode, s.repairCode, flowgraph.Increments(CounterRetry)).
		AddConditionalEdge(StepCheckAuth,
			flowgraph.NewClassifier(authRoute, OutcomeAuthRequired, OutcomeSkipAuth),
			map[string]string{
				OutcomeAuthRequired: StepHandleAuth,
				OutcomeSkipAuth:     StepLoadPage,
			}).
		AddEdge(StepHandleAuth, StepLoadPage).
		AddEdge(StepLoadPage, StepGenerateCode).
		AddEdge(StepGenerateCode, StepReflectCode).
		AddLoopEdge(StepReflectCode, ReflectGuard(cfg.MaxCodeReflections), StepGenerateCode, StepGenerateTest).
		AddLoopEdge(StepGenerateTest, RetryGuard(cfg.MaxTestRetries), StepRepairCode, flowgraph.END).
		AddEdge(StepRepairCode, StepGenerateTest).
		SetEntry(StepCheckAuth).
		Compile()
}

// ReflectGuard bounds the code review loop.
func ReflectGuard(limit int) flowgraph.LoopGuard[State] {
	return flowgraph.LoopGuard[State]{
		Name:    CounterReflect,
		Counter: func(s State) int { return s.ReflectLoopCount },
		Max:     limit,
		Done:    func(s State) bool { return !s.ShouldReflect },
	}
}

// RetryGuard bounds the test repair loop.
func RetryGuard(limit int) flowgraph.LoopGuard[State] {
	return flowgraph.LoopGuard[State]{
		Name:    CounterRetry,
		Counter: func(s State) int { return s.RetryCount },
		Max:     limit,
		Done:    State.Succeeded,
	}
}

// NewSpecGraph builds the linear graph that turns a GitHub repository's
// README into a login page spec:
//
//	fetch_readme -> extract_login_info -> generate_spec
func NewSpecGraph(deps Deps) (*flowgraph.CompiledGraph[State, Update], error) {
	if err := deps.require("generator"); err != nil {
		return nil, err
	}
	s := &specSteps{deps: deps.withDefaults()}

	return flowgraph.NewGraph[State, Update]().
		AddNode(StepFetchReadme, s.fetchReadme).
		AddNode(StepExtractLoginInfo, s.extractLoginInfo).
		AddNode(StepGenerateSpec, s.generateSpec).
		AddEdge(StepFetchReadme, StepExtractLoginInfo).
		AddEdge(StepExtractLoginInfo, StepGenerateSpec).
		SetEntry(StepFetchReadme).
		SetFinish(StepGenerateSpec).
		Compile()
}
