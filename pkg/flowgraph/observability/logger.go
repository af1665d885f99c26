// Package observability carries the run telemetry of flowgraph: structured
// lifecycle logs, step and run metrics (OpenTelemetry or Prometheus) and
// OpenTelemetry spans.
//
// Every signal is labelled with the graph name so several graphs can share a
// logger, a registry and a tracer provider. All of it is opt-in; the Noop
// types stand in when a signal is disabled.
package observability

import (
	"log/slog"
	"time"
)

// RunLogger writes the lifecycle lines of one graph run. Each line carries
// the graph name and run ID. The zero RunLogger discards everything.
type RunLogger struct {
	l *slog.Logger
}

// NewRunLogger binds logger to a run. A nil logger yields a RunLogger that
// discards everything.
func NewRunLogger(logger *slog.Logger, graph, runID string) RunLogger {
	if logger == nil {
		return RunLogger{}
	}
	return RunLogger{l: logger.With(
		slog.String("graph", graph),
		slog.String("run_id", runID),
	)}
}

// Enabled reports whether lines are written anywhere.
func (r RunLogger) Enabled() bool {
	return r.l != nil
}

// RunStart logs the start of a run at its entry step.
func (r RunLogger) RunStart(entry string, maxSteps int) {
	if r.l == nil {
		return
	}
	r.l.Info("graph run starting",
		slog.String("entry", entry),
		slog.Int("max_steps", maxSteps))
}

// RunComplete logs a run that reached END or a finish step.
func (r RunLogger) RunComplete(d time.Duration, steps int) {
	if r.l == nil {
		return
	}
	r.l.Info("graph run completed",
		slog.Int64("duration_ms", d.Milliseconds()),
		slog.Int("steps_executed", steps))
}

// RunError logs a run aborted by err while at lastNode.
func (r RunLogger) RunError(err error, d time.Duration, lastNode string) {
	if r.l == nil {
		return
	}
	r.l.Error("graph run failed",
		slog.String("error", err.Error()),
		slog.Int64("duration_ms", d.Milliseconds()),
		slog.String("last_node", lastNode))
}

// StepStart logs the start of the seq-th step of the run.
func (r RunLogger) StepStart(nodeID string, seq int) {
	if r.l == nil {
		return
	}
	r.l.Debug("step starting",
		slog.String("node_id", nodeID),
		slog.Int("seq", seq))
}

// StepComplete logs a step that returned without error.
func (r RunLogger) StepComplete(nodeID string, seq int, d time.Duration) {
	if r.l == nil {
		return
	}
	r.l.Debug("step completed",
		slog.String("node_id", nodeID),
		slog.Int("seq", seq),
		slog.Int64("duration_ms", d.Milliseconds()))
}

// StepError logs a step's domain failure. The run goes on routing, so this
// is a warning.
func (r RunLogger) StepError(nodeID string, seq int, err error, d time.Duration) {
	if r.l == nil {
		return
	}
	r.l.Warn("step failed",
		slog.String("node_id", nodeID),
		slog.Int("seq", seq),
		slog.String("error", err.Error()),
		slog.Int64("duration_ms", d.Milliseconds()))
}

// Route logs a conditional routing decision.
func (r RunLogger) Route(from, outcome, to string) {
	if r.l == nil {
		return
	}
	r.l.Debug("route selected",
		slog.String("from", from),
		slog.String("outcome", outcome),
		slog.String("to", to))
}

// LoopIteration logs a loop edge taking its continue route.
func (r RunLogger) LoopIteration(loop, from string, counter, max int) {
	if r.l == nil {
		return
	}
	r.l.Info("loop iteration",
		slog.String("loop", loop),
		slog.String("from", from),
		slog.Int("counter", counter),
		slog.Int("max", max))
}

// TraceRecordFailed logs a trace entry that could not be stored.
func (r RunLogger) TraceRecordFailed(nodeID string, err error) {
	if r.l == nil {
		return
	}
	r.l.Warn("trace record failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()))
}
