package flowgraph

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/randalmurphal/uitestgen/pkg/flowgraph/observability"
	"github.com/randalmurphal/uitestgen/pkg/flowgraph/trace"
)

// Run executes the graph with the given initial state.
// Returns the final state and any error encountered.
//
// Steps that return an error do not stop the run: the error is wrapped in a
// *StepError, recorded in state via RecordError, and routing continues. Run
// only returns an error for conditions the graph cannot route around:
// *RoutingError, *LoopGuardError, *PanicError, *MaxIterationsError,
// *CancellationError and ErrNilContext. On error, the returned state is the
// state at the point of failure.
//
// Execution flow:
//  1. Start at the entry point node
//  2. Check for cancellation
//  3. Execute the current step and merge its update
//  4. Stop if the step is a finish node
//  5. Determine the next step (via static or conditional edge)
//  6. Repeat until END is reached or an error occurs
//
// Example:
//
//	ctx := flowgraph.NewContext(context.Background())
//	result, err := compiled.Run(ctx, initialState)
//	if err != nil {
//	    // result contains state at point of failure
//	}
func (cg *CompiledGraph[S, U]) Run(ctx Context, state S, opts ...RunOption) (result S, runErr error) {
	if ctx == nil {
		return state, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.runID == "" {
		cfg.runID = ctx.RunID()
	}
	if cfg.maxIterations == 0 {
		cfg.maxIterations = cg.stepBound
	}

	startTime := time.Now()
	log := observability.NewRunLogger(cfg.logger, cfg.graphName, cfg.runID)
	log.RunStart(cg.entryPoint, cfg.maxIterations)

	execCtx, runSpan := cfg.spans.StartRun(ctx, cfg.graphName, cfg.runID, cg.entryPoint)

	d := &drive[S, U]{
		graph:        cg,
		cfg:          &cfg,
		log:          log,
		parent:       ctx,
		execCtx:      execCtx,
		lastContinue: make(map[string]int),
	}
	result, runErr = d.run(state)

	duration := time.Since(startTime)
	cfg.spans.EndRun(runSpan, d.steps, runErr)
	cfg.metrics.RecordRun(ctx, cfg.graphName, runErr == nil, duration)

	if runErr != nil {
		log.RunError(runErr, duration, d.current)
	} else {
		log.RunComplete(duration, d.steps)
	}

	return result, runErr
}

// drive holds the bookkeeping of a single Run.
type drive[S State[S, U], U any] struct {
	graph   *CompiledGraph[S, U]
	cfg     *runConfig
	log     observability.RunLogger
	parent  Context
	execCtx context.Context

	current string
	steps   int
	// lastContinue maps a guard name to its counter at the previous continue.
	lastContinue map[string]int
}

// run is the drive loop.
func (d *drive[S, U]) run(state S) (S, error) {
	cg := d.graph
	d.current = cg.entryPoint
	iterations := 0

	for d.current != END {
		current := d.current

		iterations++
		if iterations > d.cfg.maxIterations {
			return state, &MaxIterationsError{
				Max:        d.cfg.maxIterations,
				LastNodeID: current,
				State:      state,
			}
		}

		if err := d.parent.Err(); err != nil {
			return state, &CancellationError{
				NodeID:       current,
				State:        state,
				Cause:        err,
				WasExecuting: false,
			}
		}

		seq := d.steps + 1
		d.log.StepStart(current, seq)
		stepCtx, span := d.cfg.spans.StartStep(d.execCtx, current, seq)

		stepStart := time.Now()
		update, stepErr, hardErr := d.executeStep(stepCtx, current, seq, state)
		stepDuration := time.Since(stepStart)

		if hardErr != nil {
			d.cfg.spans.EndStep(span, hardErr)
			var cancelErr *CancellationError
			if errors.As(hardErr, &cancelErr) {
				cancelErr.State = state
			}
			return state, hardErr
		}

		state = state.Merge(update)
		if stepErr != nil {
			state = state.RecordError(stepErr)
			d.log.StepError(current, seq, stepErr, stepDuration)
		} else {
			d.log.StepComplete(current, seq, stepDuration)
		}
		d.cfg.metrics.RecordStepExecution(stepCtx, d.cfg.graphName, current, stepDuration, stepErr)
		d.steps = seq

		next, outcome := END, ""
		if !cg.finish[current] {
			var err error
			next, outcome, err = d.resolve(stepCtx, current, state)
			if err != nil {
				d.cfg.spans.EndStep(span, err)
				return state, err
			}
		}

		d.cfg.spans.EndStep(span, stepErr)

		d.record(current, update, stepErr, outcome, next, stepDuration)
		d.current = next
	}

	return state, nil
}

// executeStep runs one step with panic recovery and the optional step
// timeout. stepErr is a domain failure to be routed; hardErr aborts the run.
func (d *drive[S, U]) executeStep(std context.Context, nodeID string, seq int, state S) (update U, stepErr, hardErr error) {
	fn, exists := d.graph.getNode(nodeID)
	if !exists {
		// Compile guarantees every routed target exists.
		return update, nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	timeout := d.cfg.stepTimeout
	var cancel context.CancelFunc = func() {}
	if timeout > 0 {
		std, cancel = context.WithTimeout(std, timeout)
	}
	defer cancel()

	nodeCtx := derive(d.parent, std, d.cfg.graphName, d.cfg.runID, nodeID, seq)

	if timeout <= 0 {
		update, err, panicErr := invoke(fn, nodeCtx, nodeID, state)
		if panicErr != nil {
			return update, nil, panicErr
		}
		return update, d.classify(nodeID, err), nil
	}

	type outcome struct {
		update   U
		err      error
		panicErr *PanicError
	}
	done := make(chan outcome, 1)
	go func() {
		u, err, p := invoke(fn, nodeCtx, nodeID, state)
		done <- outcome{update: u, err: err, panicErr: p}
	}()

	select {
	case out := <-done:
		if out.panicErr != nil {
			return out.update, nil, out.panicErr
		}
		return out.update, d.classify(nodeID, out.err), nil
	case <-std.Done():
		if err := d.parent.Err(); err != nil {
			return update, nil, &CancellationError{NodeID: nodeID, Cause: err, WasExecuting: true}
		}
		return update, &StepError{
			NodeID: nodeID,
			Reason: fmt.Sprintf("step exceeded timeout of %s", timeout),
			Err:    context.DeadlineExceeded,
		}, nil
	}
}

// classify turns a step's returned error into a *StepError.
func (d *drive[S, U]) classify(nodeID string, err error) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*StepError); ok {
		if se.NodeID == "" {
			se.NodeID = nodeID
		}
		return se
	}
	return &StepError{NodeID: nodeID, Err: err}
}

// invoke calls fn, converting a panic into a *PanicError.
func invoke[S, U any](fn NodeFunc[S, U], ctx Context, nodeID string, state S) (update U, err error, panicErr *PanicError) {
	defer func() {
		if r := recover(); r != nil {
			panicErr = &PanicError{
				NodeID: nodeID,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()
	update, err = fn(ctx, state)
	return update, err, nil
}

// resolve determines the next step from the current one.
func (d *drive[S, U]) resolve(std context.Context, current string, state S) (next, outcome string, err error) {
	cg := d.graph

	if to, ok := cg.edges[current]; ok {
		return to, "", nil
	}

	ce := cg.conditional[current]
	routerCtx := derive(d.parent, std, d.cfg.graphName, d.cfg.runID, current, d.steps)

	outcome, panicErr := classifyOutcome(ce.classifier.Classify, routerCtx, current, state)
	if panicErr != nil {
		return "", "", panicErr
	}
	if outcome == "" {
		return "", "", &RoutingError{FromNode: current, Outcome: outcome, Err: ErrEmptyOutcome}
	}
	next, ok := ce.routes[outcome]
	if !ok {
		return "", outcome, &RoutingError{FromNode: current, Outcome: outcome, Err: ErrUnknownOutcome}
	}

	if le, isLoop := cg.loops[current]; isLoop && outcome == OutcomeContinue {
		name := le.guard.Name
		counter := le.guard.Counter(state)
		if prev, seen := d.lastContinue[name]; seen && counter <= prev {
			return "", outcome, &LoopGuardError{Loop: name, FromNode: current, Counter: counter}
		}
		d.lastContinue[name] = counter
		d.log.LoopIteration(name, current, counter, le.guard.max())
		d.cfg.spans.LoopIteration(std, name, counter, le.guard.max())
		d.cfg.metrics.RecordLoopIteration(std, d.cfg.graphName, name, counter)
	}

	d.log.Route(current, outcome, next)
	d.cfg.spans.Route(std, outcome, next)
	return next, outcome, nil
}

// classifyOutcome calls a router, converting a panic into a *PanicError.
func classifyOutcome[S any](fn RouterFunc[S], ctx Context, nodeID string, state S) (outcome string, panicErr *PanicError) {
	defer func() {
		if r := recover(); r != nil {
			panicErr = &PanicError{
				NodeID: nodeID,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()
	return fn(ctx, state), nil
}

// record appends the step to the run's trace, if a recorder is configured.
// Recording failures are logged and do not affect the run.
func (d *drive[S, U]) record(nodeID string, update U, stepErr error, outcome, next string, duration time.Duration) {
	if d.cfg.recorder == nil {
		return
	}
	e := trace.New(d.cfg.runID, nodeID, d.steps, update).
		WithError(stepErr).
		WithRoute(outcome, next).
		WithDuration(duration)
	if err := d.cfg.recorder.Record(e); err != nil {
		d.log.TraceRecordFailed(nodeID, err)
	}
}
