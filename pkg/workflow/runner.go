package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/uitestgen/pkg/flowgraph"
	"github.com/randalmurphal/uitestgen/pkg/flowgraph/observability"
	"github.com/randalmurphal/uitestgen/pkg/flowgraph/trace"
	"github.com/randalmurphal/uitestgen/pkg/report"
	"github.com/randalmurphal/uitestgen/pkg/testrunner"
)

// Graph names used in logs, spans and reports.
const (
	GraphLoginTest = "login_test"
	GraphSpec      = "spec"
)

// Runner executes a compiled workflow graph and guarantees a final status.
// It is safe for concurrent use; each run gets its own ID and trace.
type Runner struct {
	graph     *flowgraph.CompiledGraph[State, Update]
	name      string
	settings  Settings
	logger    *slog.Logger
	recorder  *trace.MemoryRecorder
	metrics   observability.MetricsRecorder
	succeeded func(State) bool
	validate  func(State) error
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger for steps and lifecycle events.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetricsRecorder records step and run metrics, replacing the
// OpenTelemetry instruments enabled by Settings.Metrics.
func WithMetricsRecorder(m observability.MetricsRecorder) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewLoginTestRunner returns a Runner for a graph built by NewLoginTestGraph.
// A run succeeds when its generated test passed.
func NewLoginTestRunner(graph *flowgraph.CompiledGraph[State, Update], settings Settings, opts ...RunnerOption) *Runner {
	r := newRunner(graph, GraphLoginTest, settings, State.Succeeded, opts)
	r.validate = func(s State) error {
		if s.LoginURL == "" && s.SpecificURL == "" {
			return fmt.Errorf("%w: login_url or specific_url is required", ErrInvalidSeed)
		}
		return nil
	}
	return r
}

// NewSpecRunner returns a Runner for a graph built by NewSpecGraph.
// A run succeeds when it produced a spec without error.
func NewSpecRunner(graph *flowgraph.CompiledGraph[State, Update], settings Settings, opts ...RunnerOption) *Runner {
	r := newRunner(graph, GraphSpec, settings, func(s State) bool {
		return s.SpecMD != "" && s.Error == ""
	}, opts)
	r.validate = func(s State) error {
		if s.GithubURL == "" {
			return fmt.Errorf("%w: github_url is required", ErrInvalidSeed)
		}
		return nil
	}
	return r
}

// ErrInvalidSeed is returned by Runner.Validate for a seed state the graph
// cannot start from.
var ErrInvalidSeed = errors.New("invalid seed state")

// Name returns the graph name used in logs and reports.
func (r *Runner) Name() string {
	return r.name
}

// Validate checks that seed carries the inputs the graph's first steps read.
func (r *Runner) Validate(seed State) error {
	if r.validate == nil {
		return nil
	}
	return r.validate(seed)
}

func newRunner(graph *flowgraph.CompiledGraph[State, Update], name string, settings Settings, succeeded func(State) bool, opts []RunnerOption) *Runner {
	r := &Runner{
		graph:     graph,
		name:      name,
		settings:  settings,
		logger:    slog.Default(),
		recorder:  trace.NewMemoryRecorder(),
		succeeded: succeeded,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result is the outcome of one run.
type Result struct {
	RunID    string
	State    State
	Trace    []trace.Entry
	Started  time.Time
	Duration time.Duration
}

// Run executes the graph from seed and returns the final state.
//
// The final state always carries a status of "success" or "fail". The
// returned error is non-nil only for configuration and run-level failures
// (routing, loop guard, panic, cancellation); step failures are in
// State.Error.
func (r *Runner) Run(ctx context.Context, seed State) (State, error) {
	res, err := r.Execute(ctx, seed)
	return res.State, err
}

// Execute is Run with the run's ID and step trace.
func (r *Runner) Execute(ctx context.Context, seed State) (*Result, error) {
	runID := uuid.NewString()
	started := time.Now()

	fctx := flowgraph.NewContext(ctx,
		flowgraph.WithLogger(r.logger),
		flowgraph.WithContextRunID(runID))

	opts := []flowgraph.RunOption{
		flowgraph.WithRunID(runID),
		flowgraph.WithGraphName(r.name),
		flowgraph.WithStepTimeout(r.settings.StepTimeout),
		flowgraph.WithObservabilityLogger(r.logger),
		flowgraph.WithRecorder(r.recorder),
		flowgraph.WithMetrics(r.settings.Metrics),
		flowgraph.WithTracing(r.settings.Tracing),
	}
	if r.metrics != nil {
		opts = append(opts, flowgraph.WithMetricsRecorder(r.metrics))
	}

	final, runErr := r.graph.Run(fctx, seed, opts...)

	if err := final.Session.Close(); err != nil {
		r.logger.Warn("close browser session", "run_id", runID, "error", err.Error())
	}
	final.Session = nil

	if r.succeeded(final) {
		final.Status = StatusSuccess
	} else {
		final.Status = StatusFail
	}
	if runErr != nil && final.Error == "" {
		final.Error = runErr.Error()
	}

	entries, err := r.recorder.List(runID)
	if err != nil {
		r.logger.Warn("read run trace", "run_id", runID, "error", err.Error())
	}
	if err := r.recorder.Reset(runID); err != nil {
		r.logger.Warn("reset run trace", "run_id", runID, "error", err.Error())
	}

	return &Result{
		RunID:    runID,
		State:    final,
		Trace:    entries,
		Started:  started,
		Duration: time.Since(started),
	}, runErr
}

// Report assembles the report of a finished run, including the graph
// diagram with the executed steps highlighted.
func (r *Runner) Report(res *Result) report.Data {
	st := res.State
	visited := make([]string, 0, len(res.Trace))
	for _, e := range res.Trace {
		visited = append(visited, e.NodeID)
	}

	var artifacts []report.Artifact
	add := func(label, path string) {
		if path != "" {
			artifacts = append(artifacts, report.Artifact{Label: label, Path: path})
		}
	}
	add("Selenium code", st.SeleniumCodePath)
	add("Test case", st.TestFilePath)
	add("Login page screenshot", st.ImagePath)

	return report.Data{
		Title:        "Login test report",
		RunID:        res.RunID,
		Generated:    res.Started.Add(res.Duration),
		LoginURL:     st.LoginURL,
		Status:       st.Status,
		Error:        st.Error,
		RetryCount:   st.RetryCount,
		ReflectCount: st.ReflectLoopCount,
		Artifacts:    artifacts,
		TestOutput:   st.TestOutput,
		Summary:      testrunner.ParseSummary(st.TestOutput),
		Trace:        res.Trace,
		Graph:        r.graph.Mermaid(&flowgraph.MermaidOverlay{Visited: visited}),
	}
}

// Graph returns the compiled graph the runner executes.
func (r *Runner) Graph() *flowgraph.CompiledGraph[State, Update] {
	return r.graph
}
