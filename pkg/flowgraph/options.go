package flowgraph

import (
	"fmt"
	"log/slog"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/uitestgen/pkg/flowgraph/observability"
	"github.com/randalmurphal/uitestgen/pkg/flowgraph/trace"
)

// MaxIterationsLimit is the largest value WithMaxIterations accepts.
const MaxIterationsLimit = 100000

// runConfig holds configuration for graph execution.
type runConfig struct {
	// maxIterations of zero means "use the graph's StepBound".
	maxIterations int
	stepTimeout   time.Duration
	runID         string
	graphName     string

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager

	recorder trace.Recorder
}

// defaultRunConfig returns the default execution configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		graphName: "flowgraph",
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxIterations sets the maximum number of step executions.
// Default: the compiled graph's StepBound().
//
// This is a backstop: guarded loops already bound a run. If a graph
// exceeds the limit, Run returns a *MaxIterationsError.
//
// Panics if n <= 0 or n > MaxIterationsLimit.
//
// Example:
//
//	result, err := compiled.Run(ctx, state, flowgraph.WithMaxIterations(100))
func WithMaxIterations(n int) RunOption {
	if n <= 0 {
		panic("flowgraph: max iterations must be > 0")
	}
	if n > MaxIterationsLimit {
		panic(fmt.Sprintf("flowgraph: max iterations exceeds limit (%d)", MaxIterationsLimit))
	}
	return func(c *runConfig) {
		c.maxIterations = n
	}
}

// WithStepTimeout bounds each step's execution time.
// A step that exceeds it fails with a *StepError wrapping
// context.DeadlineExceeded, which is routed like any other domain error.
// Zero disables the timeout.
//
// The timed-out step is not stopped: its goroutine keeps running until it
// returns, and its update is discarded. Steps must return promptly once
// ctx is done. Otherwise a late step's side effects, such as files it
// writes or handles it opens, overlap the steps that run after it.
func WithStepTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d >= 0 {
			c.stepTimeout = d
		}
	}
}

// WithRunID sets the run identifier used in logs, traces and spans.
// Defaults to the Context's RunID.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithGraphName names the graph in lifecycle logs, metric labels, spans and
// step contexts. The default is "flowgraph".
func WithGraphName(name string) RunOption {
	return func(c *runConfig) {
		if name != "" {
			c.graphName = name
		}
	}
}

// WithObservabilityLogger enables run and step lifecycle logging.
func WithObservabilityLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics toggles OpenTelemetry metrics using the global meter provider.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder installs a specific MetricsRecorder, such as a
// Prometheus recorder.
func WithMetricsRecorder(m observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if m == nil {
			m = observability.NoopMetrics{}
		}
		c.metrics = m
	}
}

// WithTracing toggles OpenTelemetry tracing using the global tracer provider.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.spans = observability.NewSpanManager(nil)
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithTracerProvider traces the run with spans from tp.
func WithTracerProvider(tp oteltrace.TracerProvider) RunOption {
	return func(c *runConfig) {
		c.spans = observability.NewSpanManager(tp)
	}
}

// WithRecorder records one trace.Entry per executed step.
func WithRecorder(r trace.Recorder) RunOption {
	return func(c *runConfig) {
		c.recorder = r
	}
}
