package flowgraph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context is what a step or classifier sees of the run: a context.Context
// carrying the run's deadline, cancellation and trace span, plus the run's
// identity and a logger bound to it.
//
// The caller creates one with NewContext; Run derives a fresh Context for
// every step and every classifier call.
type Context interface {
	context.Context

	// Logger is never nil. Inside a run it carries graph, run_id, node_id
	// and seq attributes.
	Logger() *slog.Logger

	// RunID identifies the run. NewContext generates one when none is given.
	RunID() string

	// Graph is the name given with WithGraphName. Empty outside a run.
	Graph() string

	// NodeID is the step being executed, or whose outcome is being
	// classified. Empty outside a run.
	NodeID() string

	// Seq is the 1-based position of the current step in the run. Loop
	// iterations re-enter a step with a higher Seq. Zero outside a run.
	Seq() int
}

type executionContext struct {
	context.Context

	logger *slog.Logger
	runID  string
	graph  string
	nodeID string
	seq    int
}

func (c *executionContext) Logger() *slog.Logger { return c.logger }
func (c *executionContext) RunID() string { return c.runID }
func (c *executionContext) Graph() string { return c.graph }
func (c *executionContext) NodeID() string { return c.nodeID }
func (c *executionContext) Seq() int { return c.seq }

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the base logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextRunID sets the run identifier. An empty id keeps the generated
// UUID.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		if id != "" {
			c.runID = id
		}
	}
}

// NewContext wraps ctx for use with Run:
//
//	ctx := flowgraph.NewContext(context.Background(),
//	    flowgraph.WithLogger(logger),
//	    flowgraph.WithContextRunID(runID))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

// derive returns the Context of one step. std may carry a step deadline or
// span that parent lacks.
func derive(parent Context, std context.Context, graph, runID, nodeID string, seq int) *executionContext {
	logger := parent.Logger()
	if logger == nil {
		logger = slog.Default()
	}
	return &executionContext{
		Context: std,
		logger: logger.With(
			slog.String("graph", graph),
			slog.String("run_id", runID),
			slog.String("node_id", nodeID),
			slog.Int("seq", seq),
		),
		runID:  runID,
		graph:  graph,
		nodeID: nodeID,
		seq:    seq,
	}
}
