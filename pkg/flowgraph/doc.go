/*
Package flowgraph provides graph-based orchestration for generate, check and
repair workflows.

# Overview

flowgraph threads a typed state value through named steps. Each step returns
a partial update that the state merges; edges pick the next step, either
statically or by classifying the merged state. Cycles are allowed only where a
loop guard bounds them, so every run terminates.

  - Type-safe generics for state and update types
  - Compile-time validation of graph structure, routing tables and loops
  - Domain errors are routed, not thrown
  - OpenTelemetry and Prometheus integration for observability

# Basic Usage

Define a state, its update type, and the merge between them:

	type Job struct {
	    Input, Output, Error string
	}

	type JobUpdate struct {
	    Output *string
	    Error  *string
	}

	func (j Job) Merge(u JobUpdate) Job {
	    flowgraph.MergeField(&j.Output, u.Output)
	    flowgraph.MergeField(&j.Error, u.Error)
	    return j
	}

	func (j Job) RecordError(err error) Job {
	    j.Error = err.Error()
	    return j
	}

Then build, compile and run:

	func process(ctx flowgraph.Context, j Job) (JobUpdate, error) {
	    return JobUpdate{Output: flowgraph.Set("Processed: " + j.Input)}, nil
	}

	graph := flowgraph.NewGraph[Job, JobUpdate]().
	    AddNode("process", process).
	    AddEdge("process", flowgraph.END).
	    SetEntry("process")

	compiled, err := graph.Compile()
	if err != nil {
	    log.Fatal(err)
	}

	ctx := flowgraph.NewContext(context.Background())
	result, err := compiled.Run(ctx, Job{Input: "hello"})

# Conditional Edges

A conditional edge pairs a classifier with a routing table. The classifier
declares every outcome it can return; Compile rejects a table that misses one:

	auth := flowgraph.NewClassifier(func(ctx flowgraph.Context, s State) string {
	    if s.NeedsAuth {
	        return "auth_required"
	    }
	    return "skip_auth"
	}, "auth_required", "skip_auth")

	graph.AddConditionalEdge("check", auth, map[string]string{
	    "auth_required": "login",
	    "skip_auth":     "load",
	})

At runtime an outcome missing from the table aborts the run with a
*RoutingError. There is no default route.

# Loops

Back-edges must go through AddLoopEdge. The guard reads a counter from state;
a step inside the cycle, declared with Increments, advances it:

	guard := flowgraph.LoopGuard[State]{
	    Name:    "retry_count",
	    Counter: func(s State) int { return s.RetryCount },
	    Max:     3,
	    Done:    func(s State) bool { return s.Status == "success" },
	}

	graph.
	    AddNode("attempt", attempt).
	    AddNode("repair", repair, flowgraph.Increments("retry_count")).
	    AddLoopEdge("attempt", guard, "repair", flowgraph.END).
	    AddEdge("repair", "attempt")

Compile fails with ErrUnguardedCycle for a cycle that skips the guard and
with ErrCounterNotIncremented when no step in the cycle advances the counter.
At runtime, a continue decision that sees the same counter value as the
previous one aborts the run with a *LoopGuardError.

# Observability

Every signal is opt-in:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	recorder, _ := observability.NewPrometheusRecorder(registry)

	result, err := compiled.Run(ctx, state,
	    flowgraph.WithGraphName("login_test"),
	    flowgraph.WithObservabilityLogger(logger),
	    flowgraph.WithMetricsRecorder(recorder),
	    flowgraph.WithTracerProvider(tp),
	    flowgraph.WithRecorder(trace.NewMemoryRecorder()),
	    flowgraph.WithRunID("run-123"))

WithMetrics(true) and WithTracing(true) use the global OpenTelemetry
providers instead.

Lifecycle lines carry graph, run_id, node_id, seq and duration_ms. Metrics
are labelled by graph: flowgraph.step.executions, flowgraph.loop.iterations
and so on for OpenTelemetry, flowgraph_step_executions_total and friends for
Prometheus. Spans nest as flowgraph.run > flowgraph.step.{id}; routing and
loop decisions are span events.

# Error Handling

Errors returned by steps become *StepError values recorded in state; the run
continues. Run returns an error only when it cannot continue:

	result, err := compiled.Run(ctx, state)
	var routeErr *flowgraph.RoutingError
	if errors.As(err, &routeErr) {
	    log.Printf("step %s returned unknown outcome %q", routeErr.FromNode, routeErr.Outcome)
	}

	var panicErr *flowgraph.PanicError
	if errors.As(err, &panicErr) {
	    log.Printf("step %s panicked: %v\n%s", panicErr.NodeID, panicErr.Value, panicErr.Stack)
	}

# Thread Safety

  - Graph is NOT safe for concurrent use during construction
  - CompiledGraph IS safe for concurrent use (immutable)
  - Context IS safe for concurrent use

# Subpackages

  - config: Configuration loading and decoding
  - errors: Error categorization and retry
  - observability: Logging, metrics, and tracing helpers
  - trace: Per-run step trace
*/
package flowgraph
