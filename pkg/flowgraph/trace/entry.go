// Package trace records the steps a graph run executed, in order.
//
// A trace is kept in memory for the lifetime of a run. It is meant for
// reports and debugging, not for resuming a run.
package trace

import (
	"encoding/json"
	"time"
)

// Entry describes one executed step.
type Entry struct {
	RunID     string        `json:"run_id"`
	NodeID    string        `json:"node_id"`
	Sequence  int           `json:"sequence"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`

	// Update is the JSON form of the step's partial update.
	Update json.RawMessage `json:"update,omitempty"`
	// Error is the domain error the step reported, if any.
	Error string `json:"error,omitempty"`

	// Outcome is the classifier label, empty for static edges.
	Outcome string `json:"outcome,omitempty"`
	// Next is the step chosen after this one, or "__end__".
	Next string `json:"next"`
}

// New creates an entry for a step. The update is JSON-encoded; an update
// that cannot be encoded is recorded without a body.
func New(runID, nodeID string, sequence int, update any) Entry {
	e := Entry{
		RunID:     runID,
		NodeID:    nodeID,
		Sequence:  sequence,
		Timestamp: time.Now().UTC(),
	}
	if data, err := json.Marshal(update); err == nil {
		e.Update = data
	}
	return e
}

// WithError sets the step's domain error.
func (e Entry) WithError(err error) Entry {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithRoute sets the routing decision taken after the step.
func (e Entry) WithRoute(outcome, next string) Entry {
	e.Outcome = outcome
	e.Next = next
	return e
}

// WithDuration sets how long the step ran.
func (e Entry) WithDuration(d time.Duration) Entry {
	e.Duration = d
	return e
}
