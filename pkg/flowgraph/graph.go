package flowgraph

import (
	"fmt"
	"strings"
	"sync"
)

// Classifier is the decision half of a conditional edge.
// Outcomes declares the complete range of labels Classify can return;
// Compile rejects a routing table that does not cover every declared outcome.
type Classifier[S any] struct {
	Outcomes []string
	Classify RouterFunc[S]
}

// NewClassifier builds a Classifier from a router and its declared outcomes.
// When no outcomes are given, the routing table's keys become the declared
// range.
func NewClassifier[S any](fn RouterFunc[S], outcomes ...string) Classifier[S] {
	return Classifier[S]{Outcomes: outcomes, Classify: fn}
}

// conditionalEdge is a classifier plus its outcome -> successor table.
type conditionalEdge[S any] struct {
	classifier Classifier[S]
	routes     map[string]string
}

// Graph is a mutable builder for creating execution graphs.
// Use NewGraph to create a new graph, then chain AddNode, AddEdge,
// AddConditionalEdge, AddLoopEdge and SetEntry calls to define the workflow.
//
// Graph is NOT thread-safe during building. Use a single goroutine
// to construct the graph, then call Compile() to create an immutable
// CompiledGraph that can be safely shared.
//
// Example:
//
//	graph := flowgraph.NewGraph[Job, JobUpdate]().
//	    AddNode("fetch", fetch).
//	    AddNode("process", process).
//	    AddEdge("fetch", "process").
//	    AddEdge("process", flowgraph.END).
//	    SetEntry("fetch")
//
//	compiled, err := graph.Compile()
type Graph[S State[S, U], U any] struct {
	mu               sync.RWMutex
	nodes            map[string]NodeFunc[S, U]
	specs            map[string]nodeSpec
	order            []string
	edges            map[string][]string
	conditionalEdges map[string][]conditionalEdge[S]
	loops            map[string]loopEdge[S]
	finish           map[string]bool
	entryPoint       string
}

// NewGraph creates a new graph builder for state type S and update type U.
func NewGraph[S State[S, U], U any]() *Graph[S, U] {
	return &Graph[S, U]{
		nodes:            make(map[string]NodeFunc[S, U]),
		specs:            make(map[string]nodeSpec),
		edges:            make(map[string][]string),
		conditionalEdges: make(map[string][]conditionalEdge[S]),
		loops:            make(map[string]loopEdge[S]),
		finish:           make(map[string]bool),
	}
}

// AddNode adds a named node to the graph.
// Returns the graph for method chaining.
//
// Panics if:
//   - id is empty
//   - id is the reserved word "END" or "__end__" (case-insensitive)
//   - id contains whitespace (space, tab, newline)
//   - fn is nil
//   - id already exists in the graph
func (g *Graph[S, U]) AddNode(id string, fn NodeFunc[S, U], opts ...NodeOption) *Graph[S, U] {
	if id == "" {
		panic("flowgraph: node ID cannot be empty")
	}

	idLower := strings.ToLower(id)
	if idLower == "end" || idLower == "__end__" {
		panic("flowgraph: node ID cannot be reserved word 'END'")
	}

	if strings.ContainsAny(id, " \t\n\r") {
		panic("flowgraph: node ID cannot contain whitespace")
	}

	if fn == nil {
		panic("flowgraph: node function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		panic(fmt.Sprintf("flowgraph: duplicate node ID: %s", id))
	}

	var spec nodeSpec
	for _, opt := range opts {
		opt(&spec)
	}

	g.nodes[id] = fn
	g.specs[id] = spec
	g.order = append(g.order, id)
	return g
}

// AddEdge adds an unconditional edge from one node to another.
// The target can be a node ID or flowgraph.END.
// Returns the graph for method chaining.
//
// Edge validation happens at Compile() time, not here.
// This allows edges to be added in any order.
func (g *Graph[S, U]) AddEdge(from, to string) *Graph[S, U] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges[from] = append(g.edges[from], to)
	return g
}

// AddConditionalEdge adds an edge whose successor is chosen at runtime.
// The classifier's outcome is looked up in routes; targets may be node IDs
// or flowgraph.END.
//
// Compile fails when routes does not cover every declared outcome. At
// runtime an outcome missing from routes fails the run with a RoutingError.
//
// Panics if the classifier function is nil.
func (g *Graph[S, U]) AddConditionalEdge(from string, c Classifier[S], routes map[string]string) *Graph[S, U] {
	if c.Classify == nil {
		panic("flowgraph: router function cannot be nil")
	}

	table := make(map[string]string, len(routes))
	for outcome, to := range routes {
		table[outcome] = to
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.conditionalEdges[from] = append(g.conditionalEdges[from], conditionalEdge[S]{
		classifier: c,
		routes:     table,
	})
	return g
}

// AddLoopEdge adds a guarded back-edge out of from.
// While guard.ShouldContinue holds the run moves to continueTo; otherwise it
// moves to doneTo. The cycle formed through continueTo must contain a node
// declared with Increments(guard.Name).
//
// Panics if guard.Name is empty or guard.Counter is nil.
func (g *Graph[S, U]) AddLoopEdge(from string, guard LoopGuard[S], continueTo, doneTo string) *Graph[S, U] {
	if guard.Name == "" {
		panic("flowgraph: loop guard name cannot be empty")
	}
	if guard.Counter == nil {
		panic("flowgraph: loop guard counter cannot be nil")
	}

	g.mu.Lock()
	g.loops[from] = loopEdge[S]{
		from:       from,
		guard:      guard,
		continueTo: continueTo,
		doneTo:     doneTo,
	}
	g.mu.Unlock()

	classify := func(_ Context, s S) string { return guard.Outcome(s) }
	return g.AddConditionalEdge(from, NewClassifier[S](classify, OutcomeContinue, OutcomeDone), map[string]string{
		OutcomeContinue: continueTo,
		OutcomeDone:     doneTo,
	})
}

// SetEntry designates the entry point node.
// This must be called before Compile().
// Returns the graph for method chaining.
//
// Entry point validation happens at Compile() time.
func (g *Graph[S, U]) SetEntry(id string) *Graph[S, U] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entryPoint = id
	return g
}

// SetFinish marks a node as terminal: the run ends after it executes.
// A finish node must not have outgoing edges.
func (g *Graph[S, U]) SetFinish(id string) *Graph[S, U] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.finish[id] = true
	return g
}
