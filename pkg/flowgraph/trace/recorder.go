package trace

import (
	"errors"
	"sort"
	"sync"
)

// Recorder collects trace entries.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// Record appends an entry for its run.
	Record(e Entry) error

	// List returns the entries of a run ordered by sequence.
	// Returns an empty slice (not error) if the run has no entries.
	List(runID string) ([]Entry, error)

	// Reset drops every entry of a run.
	Reset(runID string) error
}

// ErrRecorderClosed indicates the recorder has been closed.
var ErrRecorderClosed = errors.New("trace recorder closed")

// MemoryRecorder keeps entries in memory.
type MemoryRecorder struct {
	mu     sync.RWMutex
	runs   map[string][]Entry
	closed bool
}

// Compile-time interface check.
var _ Recorder = (*MemoryRecorder)(nil)

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		runs: make(map[string][]Entry),
	}
}

// Record implements Recorder.
func (m *MemoryRecorder) Record(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrRecorderClosed
	}

	if e.Update != nil {
		body := make([]byte, len(e.Update))
		copy(body, e.Update)
		e.Update = body
	}
	m.runs[e.RunID] = append(m.runs[e.RunID], e)
	return nil
}

// List implements Recorder.
func (m *MemoryRecorder) List(runID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrRecorderClosed
	}

	entries := make([]Entry, len(m.runs[runID]))
	copy(entries, m.runs[runID])
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Sequence < entries[j].Sequence
	})
	return entries, nil
}

// Reset implements Recorder.
func (m *MemoryRecorder) Reset(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrRecorderClosed
	}

	delete(m.runs, runID)
	return nil
}

// Len returns the total number of entries across all runs.
func (m *MemoryRecorder) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, entries := range m.runs {
		n += len(entries)
	}
	return n
}

// Close releases the recorder. Further calls return ErrRecorderClosed.
func (m *MemoryRecorder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.runs = nil
	return nil
}
