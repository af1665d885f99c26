package flowgraph

// END is the terminal node identifier.
// Use this as an edge target to indicate the graph should terminate.
const END = "__end__"

// State is the constraint every workflow state type satisfies.
//
// S is the full state, U is the partial update a step returns. Merge must be
// total: fields left unset in the update keep their current value. RecordError
// stores a domain failure in the state so conditional edges can branch on it.
//
// Example:
//
//	type Job struct{ Attempts int; Error string }
//	type JobUpdate struct{ Attempts *int; Error *string }
//
//	func (j Job) Merge(u JobUpdate) Job {
//	    flowgraph.MergeCounter(&j.Attempts, u.Attempts)
//	    flowgraph.MergeField(&j.Error, u.Error)
//	    return j
//	}
//
//	func (j Job) RecordError(err error) Job {
//	    j.Error = err.Error()
//	    return j
//	}
type State[S any, U any] interface {
	Merge(update U) S
	RecordError(err error) S
}

// NodeFunc is the signature for all step functions.
// Steps receive the execution context and the current state and return a
// partial update describing what changed.
//
// A non-nil error is a domain failure. The executor merges the returned
// update, records the error in state and keeps routing, so a step that fails
// should still return whatever partial update it produced.
//
// Steps may be re-entered through loop edges and must derive their behavior
// from the state they receive, not from how often they have run.
//
// Example:
//
//	func attempt(ctx flowgraph.Context, s Job) (JobUpdate, error) {
//	    n := s.Attempts + 1
//	    return JobUpdate{Attempts: flowgraph.Set(n)}, nil
//	}
type NodeFunc[S any, U any] func(ctx Context, state S) (U, error)

// RouterFunc classifies state into an outcome label.
// It is used by conditional edges; the label is looked up in the edge's
// routing table to find the successor.
//
// Example:
//
//	func authRouter(ctx flowgraph.Context, s State) string {
//	    if s.AuthRequired {
//	        return "auth_required"
//	    }
//	    return "skip_auth"
//	}
type RouterFunc[S any] func(ctx Context, state S) string

// NodeOption configures a node when it is added to a graph.
type NodeOption func(*nodeSpec)

// nodeSpec holds per-node metadata used during compilation.
type nodeSpec struct {
	increments map[string]bool
}

// Increments declares that the node advances the named loop counter.
// Compile requires every guarded cycle to contain a node that increments the
// counter read by the cycle's LoopGuard.
func Increments(counter string) NodeOption {
	return func(s *nodeSpec) {
		if s.increments == nil {
			s.increments = make(map[string]bool)
		}
		s.increments[counter] = true
	}
}
