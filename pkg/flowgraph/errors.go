package flowgraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph building and compilation.
// These are configuration errors: Compile reports them and they are never
// retried.
var (
	// ErrNoEntryPoint indicates SetEntry() was not called before Compile().
	ErrNoEntryPoint = errors.New("entry point not set")

	// ErrEntryNotFound indicates the entry point references a non-existent node.
	ErrEntryNotFound = errors.New("entry point node not found")

	// ErrNodeNotFound indicates an edge references a non-existent node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoPathToEnd indicates no terminal is reachable from the entry point.
	ErrNoPathToEnd = errors.New("no path to END from entry")

	// ErrUnreachableNode indicates a node cannot be reached from the entry point.
	ErrUnreachableNode = errors.New("node unreachable from entry")

	// ErrNoOutgoingEdge indicates a non-terminal node has no outgoing edge.
	ErrNoOutgoingEdge = errors.New("node has no outgoing edge")

	// ErrMultipleEdges indicates a node has more than one outgoing edge.
	ErrMultipleEdges = errors.New("node has more than one outgoing edge")

	// ErrFinishHasEdge indicates a finish node was given an outgoing edge.
	ErrFinishHasEdge = errors.New("finish node has an outgoing edge")

	// ErrNonExhaustiveRoutes indicates a conditional edge's routing table
	// does not cover every declared outcome.
	ErrNonExhaustiveRoutes = errors.New("routing table not exhaustive")

	// ErrUnguardedCycle indicates a cycle that does not pass through a loop edge.
	ErrUnguardedCycle = errors.New("cycle not guarded by a loop edge")

	// ErrCounterNotIncremented indicates a guarded cycle contains no node
	// that increments the guard's counter.
	ErrCounterNotIncremented = errors.New("loop counter not incremented in cycle")

	// ErrDuplicateLoop indicates two loop guards share a counter name.
	ErrDuplicateLoop = errors.New("duplicate loop guard name")
)

// Sentinel errors for execution.
var (
	// ErrMaxIterations indicates the execution loop exceeded the configured limit.
	ErrMaxIterations = errors.New("exceeded maximum iterations")

	// ErrNilContext indicates Run() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrEmptyOutcome indicates a classifier returned an empty string.
	ErrEmptyOutcome = errors.New("classifier returned empty outcome")

	// ErrUnknownOutcome indicates a classifier returned a label that has no
	// entry in the routing table.
	ErrUnknownOutcome = errors.New("classifier returned unknown outcome")

	// ErrCounterStalled indicates a loop continued without its counter advancing.
	ErrCounterStalled = errors.New("loop counter did not advance")
)

// StepError is a domain failure reported by a step.
// The executor records it in state and keeps routing; it never aborts a run.
type StepError struct {
	// NodeID is the step that failed. Filled in by the executor.
	NodeID string
	// Reason is a short description of what went wrong.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

// NewStepError creates a StepError with a reason and an optional cause.
func NewStepError(reason string, err error) *StepError {
	return &StepError{Reason: reason, Err: err}
}

// Error implements the error interface.
func (e *StepError) Error() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	case e.Reason != "":
		return e.Reason
	case e.Err != nil:
		return e.Err.Error()
	default:
		return fmt.Sprintf("step %s failed", e.NodeID)
	}
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StepError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from step execution.
// It includes the stack trace for debugging.
type PanicError struct {
	// NodeID is the identifier of the node that panicked.
	NodeID string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// CancellationError captures the state when execution was cancelled.
// It preserves the state at the point of cancellation for inspection.
type CancellationError struct {
	// NodeID is the node that was about to execute or was executing.
	NodeID string
	// State is the state at cancellation (can type-assert to the actual type).
	State any
	// Cause is the underlying cancellation cause (context.Canceled or context.DeadlineExceeded).
	Cause error
	// WasExecuting is true if cancellation occurred during node execution.
	WasExecuting bool
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	if e.WasExecuting {
		return fmt.Sprintf("cancelled during node %s: %v", e.NodeID, e.Cause)
	}
	return fmt.Sprintf("cancelled before node %s: %v", e.NodeID, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// RoutingError reports a conditional edge that could not resolve a successor.
// It is a configuration error and aborts the run.
type RoutingError struct {
	// FromNode is the node with the conditional edge.
	FromNode string
	// Outcome is the label the classifier returned.
	Outcome string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing from %s returned %q: %v", e.FromNode, e.Outcome, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RoutingError) Unwrap() error {
	return e.Err
}

// LoopGuardError reports a loop that continued without advancing its counter.
type LoopGuardError struct {
	// Loop is the guard's counter name.
	Loop string
	// FromNode is the node carrying the loop edge.
	FromNode string
	// Counter is the counter value observed at the stalled iteration.
	Counter int
}

// Error implements the error interface.
func (e *LoopGuardError) Error() string {
	return fmt.Sprintf("loop %s at node %s: counter stuck at %d", e.Loop, e.FromNode, e.Counter)
}

// Unwrap returns ErrCounterStalled for errors.Is support.
func (e *LoopGuardError) Unwrap() error {
	return ErrCounterStalled
}

// MaxIterationsError provides context when the step budget is exceeded.
// It includes the state at termination for inspection.
type MaxIterationsError struct {
	// Max is the configured iteration limit.
	Max int
	// LastNodeID is the node that would have executed next.
	LastNodeID string
	// State is the state at termination (can type-assert to the actual type).
	State any
}

// Error implements the error interface.
func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("exceeded maximum iterations (%d) at node %s", e.Max, e.LastNodeID)
}

// Unwrap returns ErrMaxIterations for errors.Is support.
func (e *MaxIterationsError) Unwrap() error {
	return ErrMaxIterations
}
