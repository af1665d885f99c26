package flowgraph

import (
	"context"
)

// Test state types used across tests

// Counter is a simple state for testing incrementing.
type Counter struct {
	Value   int
	LastErr string
}

// CounterUpdate is the partial update for Counter.
type CounterUpdate struct {
	Value *int
}

func (c Counter) Merge(u CounterUpdate) Counter {
	MergeField(&c.Value, u.Value)
	return c
}

func (c Counter) RecordError(err error) Counter {
	c.LastErr = err.Error()
	return c
}

// testState is a richer state for testing routing and loops.
type testState struct {
	Progress []string
	Count    int
	Retries  int
	Status   string
	Error    string
	GoLeft   bool
	Errors   []string
}

// testUpdate is the partial update for testState.
type testUpdate struct {
	Progress []string
	Count    *int
	Retries  *int
	Status   *string
	Error    *string
	GoLeft   *bool
}

func (s testState) Merge(u testUpdate) testState {
	MergeSlice(&s.Progress, u.Progress)
	MergeField(&s.Count, u.Count)
	MergeCounter(&s.Retries, u.Retries)
	MergeField(&s.Status, u.Status)
	MergeField(&s.Error, u.Error)
	MergeField(&s.GoLeft, u.GoLeft)
	return s
}

func (s testState) RecordError(err error) testState {
	s.Error = err.Error()
	s.Errors = append(append([]string(nil), s.Errors...), err.Error())
	return s
}

// Helper node functions

// increment is a node that increments the counter.
func increment(ctx Context, c Counter) (CounterUpdate, error) {
	return CounterUpdate{Value: Set(c.Value + 1)}, nil
}

// noop returns an empty update.
func noop(ctx Context, s testState) (testUpdate, error) {
	return testUpdate{}, nil
}

// track creates a node that appends its name to Progress.
func track(name string) NodeFunc[testState, testUpdate] {
	return func(ctx Context, s testState) (testUpdate, error) {
		progress := append(append([]string(nil), s.Progress...), name)
		return testUpdate{Progress: progress}, nil
	}
}

// retry creates a node that appends its name and advances Retries.
func retry(name string) NodeFunc[testState, testUpdate] {
	return func(ctx Context, s testState) (testUpdate, error) {
		progress := append(append([]string(nil), s.Progress...), name)
		return testUpdate{Progress: progress, Retries: Set(s.Retries + 1)}, nil
	}
}

// failing creates a node that returns the given error along with its name
// in Progress.
func failing(name string, err error) NodeFunc[testState, testUpdate] {
	return func(ctx Context, s testState) (testUpdate, error) {
		progress := append(append([]string(nil), s.Progress...), name)
		return testUpdate{Progress: progress}, err
	}
}

// panicking creates a node that panics with the given value.
func panicking(value any) NodeFunc[testState, testUpdate] {
	return func(ctx Context, s testState) (testUpdate, error) {
		panic(value)
	}
}

// static returns a classifier that always yields outcome, declaring outcomes.
func static(outcome string, outcomes ...string) Classifier[testState] {
	return NewClassifier[testState](func(ctx Context, s testState) string { return outcome }, outcomes...)
}

// retryGuard bounds a loop on testState.Retries.
func retryGuard(budget int) LoopGuard[testState] {
	return LoopGuard[testState]{
		Name:    "retries",
		Counter: func(s testState) int { return s.Retries },
		Max:     budget,
		Done:    func(s testState) bool { return s.Status == "success" },
	}
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background())
}
