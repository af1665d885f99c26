package flowgraph

// DefaultMaxIterations is the iteration budget of a LoopGuard that does not
// set Max.
const DefaultMaxIterations = 3

// Outcome labels produced by loop edges.
const (
	OutcomeContinue = "continue"
	OutcomeDone     = "done"
)

// LoopGuard bounds a cyclic back-edge.
//
// The guard only reads its counter. A step inside the cycle, declared with
// Increments(Name), advances it. Once Counter reaches Max the loop edge routes
// to its done target whether or not Done reports success, so the workflow
// always terminates.
type LoopGuard[S any] struct {
	// Name identifies the counter key (e.g. "retry_count").
	// Guards in the same graph must use distinct names.
	Name string

	// Counter reads the loop counter from state.
	Counter func(state S) int

	// Max is the iteration budget. Zero means DefaultMaxIterations.
	Max int

	// Done reports whether the loop's goal has been met.
	// A nil Done never reports success, looping until the budget runs out.
	Done func(state S) bool
}

// max returns the effective iteration budget.
func (g LoopGuard[S]) max() int {
	if g.Max <= 0 {
		return DefaultMaxIterations
	}
	return g.Max
}

// ShouldContinue reports whether the loop should run another iteration.
func (g LoopGuard[S]) ShouldContinue(state S) bool {
	if g.Done != nil && g.Done(state) {
		return false
	}
	return g.Counter(state) < g.max()
}

// Outcome classifies state into OutcomeContinue or OutcomeDone.
func (g LoopGuard[S]) Outcome(state S) string {
	if g.ShouldContinue(state) {
		return OutcomeContinue
	}
	return OutcomeDone
}

// loopEdge records a guarded conditional edge for compile-time cycle checks
// and runtime counter bookkeeping.
type loopEdge[S any] struct {
	from       string
	guard      LoopGuard[S]
	continueTo string
	doneTo     string
}
