package flowgraph

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Compile validates the graph and creates an executable CompiledGraph.
// Returns an error if validation fails. Multiple errors are joined together.
//
// Validation checks (in order):
//  1. Entry point must be set and reference an existing node
//  2. Every edge source, edge target, route target and finish node must exist
//  3. Every non-finish node has exactly one outgoing edge; finish nodes have none
//  4. Every routing table covers all outcomes its classifier declares
//  5. Loop guards use distinct counter names
//  6. Every node is reachable from the entry point
//  7. Every reachable node has a path to END or a finish node
//  8. Every cycle passes through the continue route of a loop edge
//  9. Every guarded cycle passes through a node that increments its counter
//
// Checks 6-9 run only when 1-5 pass, since they are meaningless on a graph
// with dangling references.
func (g *Graph[S, U]) Compile() (*CompiledGraph[S, U], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var errs []error

	if g.entryPoint == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if _, exists := g.nodes[g.entryPoint]; !exists {
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, g.entryPoint))
	}

	errs = append(errs, g.validateReferences()...)
	errs = append(errs, g.validateOutgoing()...)
	errs = append(errs, g.validateRoutes()...)
	errs = append(errs, g.validateLoopNames()...)

	if len(errs) == 0 {
		errs = append(errs, g.validateStructure()...)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return g.buildCompiledGraph(), nil
}

// validateReferences checks that every ID mentioned by an edge exists.
func (g *Graph[S, U]) validateReferences() []error {
	var errs []error

	for _, from := range sortedKeys(g.edges) {
		if _, exists := g.nodes[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: edge source '%s' does not exist", ErrNodeNotFound, from))
		}
		for _, to := range g.edges[from] {
			if !g.isTarget(to) {
				errs = append(errs, fmt.Errorf("%w: edge target '%s' does not exist", ErrNodeNotFound, to))
			}
		}
	}

	for _, from := range sortedKeys(g.conditionalEdges) {
		if _, exists := g.nodes[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: conditional edge source '%s' does not exist", ErrNodeNotFound, from))
		}
		for _, ce := range g.conditionalEdges[from] {
			for _, outcome := range sortedKeys(ce.routes) {
				if to := ce.routes[outcome]; !g.isTarget(to) {
					errs = append(errs, fmt.Errorf("%w: route %s -[%s]-> '%s' does not exist", ErrNodeNotFound, from, outcome, to))
				}
			}
		}
	}

	for _, id := range sortedKeys(g.finish) {
		if _, exists := g.nodes[id]; !exists {
			errs = append(errs, fmt.Errorf("%w: finish node '%s' does not exist", ErrNodeNotFound, id))
		}
	}

	return errs
}

// validateOutgoing enforces exactly one outgoing edge per non-finish node.
func (g *Graph[S, U]) validateOutgoing() []error {
	var errs []error
	for _, id := range g.order {
		count := len(g.edges[id]) + len(g.conditionalEdges[id])
		switch {
		case g.finish[id] && count > 0:
			errs = append(errs, fmt.Errorf("%w: %s", ErrFinishHasEdge, id))
		case g.finish[id]:
		case count == 0:
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, id))
		case count > 1:
			errs = append(errs, fmt.Errorf("%w: %s has %d", ErrMultipleEdges, id, count))
		}
	}
	return errs
}

// validateRoutes checks routing tables against their classifiers' outcomes.
func (g *Graph[S, U]) validateRoutes() []error {
	var errs []error
	for _, from := range sortedKeys(g.conditionalEdges) {
		for _, ce := range g.conditionalEdges[from] {
			if len(ce.routes) == 0 {
				errs = append(errs, fmt.Errorf("%w: %s has an empty routing table", ErrNonExhaustiveRoutes, from))
				continue
			}
			for _, outcome := range ce.classifier.Outcomes {
				if _, ok := ce.routes[outcome]; !ok {
					errs = append(errs, fmt.Errorf("%w: %s has no route for outcome %q", ErrNonExhaustiveRoutes, from, outcome))
				}
			}
		}
	}
	return errs
}

// validateLoopNames rejects two guards reading the same counter.
func (g *Graph[S, U]) validateLoopNames() []error {
	var errs []error
	owner := make(map[string]string)
	for _, from := range sortedKeys(g.loops) {
		name := g.loops[from].guard.Name
		if prev, dup := owner[name]; dup {
			errs = append(errs, fmt.Errorf("%w: %s used at %s and %s", ErrDuplicateLoop, name, prev, from))
			continue
		}
		owner[name] = from
	}
	return errs
}

// validateStructure runs the reachability and cycle checks.
// It assumes every reference resolves and every node has its edge.
func (g *Graph[S, U]) validateStructure() []error {
	var errs []error

	succ := g.successorMap(false)
	reachable := reachableFrom(g.entryPoint, succ, nil)
	for _, id := range g.order {
		if !reachable[id] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnreachableNode, id))
		}
	}

	canFinish := g.canReachTerminal(succ)
	for _, id := range g.order {
		if reachable[id] && !canFinish[id] {
			errs = append(errs, fmt.Errorf("%w: %s cannot reach END", ErrNoPathToEnd, id))
		}
	}

	if id, found := findCycle(g.order, g.successorMap(true)); found {
		errs = append(errs, fmt.Errorf("%w: cycle through %s", ErrUnguardedCycle, id))
	}

	for _, from := range sortedKeys(g.loops) {
		if err := g.checkIncrement(g.loops[from], succ); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// checkIncrement verifies that every path from a loop's continue target back
// to its source crosses a node that increments the guard's counter.
func (g *Graph[S, U]) checkIncrement(le loopEdge[S], succ map[string][]string) error {
	name := le.guard.Name
	blocked := func(id string) bool { return g.specs[id].increments[name] }

	if blocked(le.continueTo) {
		return nil
	}
	if reachableFrom(le.continueTo, succ, blocked)[le.from] && !blocked(le.from) {
		return fmt.Errorf("%w: %s (loop at %s)", ErrCounterNotIncremented, name, le.from)
	}
	return nil
}

// isTarget reports whether id is a valid edge target.
func (g *Graph[S, U]) isTarget(id string) bool {
	if id == END {
		return true
	}
	_, exists := g.nodes[id]
	return exists
}

// successorMap lists every possible successor of each node, END excluded.
// When guarded is true the continue route of each loop edge is left out,
// so any remaining cycle is unguarded.
func (g *Graph[S, U]) successorMap(guarded bool) map[string][]string {
	succ := make(map[string][]string, len(g.nodes))
	for _, id := range g.order {
		seen := make(map[string]bool)
		add := func(to string) {
			if to != END && !seen[to] {
				seen[to] = true
				succ[id] = append(succ[id], to)
			}
		}
		for _, to := range g.edges[id] {
			add(to)
		}
		for _, ce := range g.conditionalEdges[id] {
			for _, outcome := range sortedKeys(ce.routes) {
				if guarded && outcome == OutcomeContinue {
					if _, isLoop := g.loops[id]; isLoop {
						continue
					}
				}
				add(ce.routes[outcome])
			}
		}
	}
	return succ
}

// canReachTerminal returns the set of nodes with a path to END or to a
// finish node, using reverse propagation until fixpoint.
func (g *Graph[S, U]) canReachTerminal(succ map[string][]string) map[string]bool {
	can := make(map[string]bool)
	for id := range g.finish {
		can[id] = true
	}
	for id, targets := range g.edges {
		for _, to := range targets {
			if to == END {
				can[id] = true
			}
		}
	}
	for id, ces := range g.conditionalEdges {
		for _, ce := range ces {
			for _, to := range ce.routes {
				if to == END {
					can[id] = true
				}
			}
		}
	}

	changed := true
	for changed {
		changed = false
		for _, id := range g.order {
			if can[id] {
				continue
			}
			for _, to := range succ[id] {
				if can[to] {
					can[id] = true
					changed = true
					break
				}
			}
		}
	}
	return can
}

// reachableFrom returns the nodes reachable from start by BFS.
// Nodes for which stop returns true are marked but not expanded.
func reachableFrom(start string, succ map[string][]string, stop func(string) bool) map[string]bool {
	reachable := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if stop != nil && stop(current) {
			continue
		}
		for _, next := range succ[current] {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	return reachable
}

// findCycle reports a node on some cycle, if one exists.
func findCycle(order []string, succ map[string][]string) (string, bool) {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(order))

	var visit func(id string) (string, bool)
	visit = func(id string) (string, bool) {
		color[id] = grey
		for _, next := range succ[id] {
			switch color[next] {
			case grey:
				return next, true
			case white:
				if found, ok := visit(next); ok {
					return found, true
				}
			}
		}
		color[id] = black
		return "", false
	}

	for _, id := range order {
		if color[id] == white {
			if found, ok := visit(id); ok {
				return found, true
			}
		}
	}
	return "", false
}

// stepBound computes n * Π(1 + Max) over all loop guards, saturating at
// math.MaxInt32.
func (g *Graph[S, U]) stepBound() int {
	bound := len(g.nodes)
	for _, le := range g.loops {
		bound *= 1 + le.guard.max()
		if bound > math.MaxInt32 {
			return math.MaxInt32
		}
	}
	return bound
}

// buildCompiledGraph creates the immutable CompiledGraph from the builder state.
func (g *Graph[S, U]) buildCompiledGraph() *CompiledGraph[S, U] {
	nodes := make(map[string]NodeFunc[S, U], len(g.nodes))
	for id, fn := range g.nodes {
		nodes[id] = fn
	}

	order := make([]string, len(g.order))
	copy(order, g.order)

	edges := make(map[string]string, len(g.edges))
	for from, targets := range g.edges {
		edges[from] = targets[0]
	}

	conditional := make(map[string]conditionalEdge[S], len(g.conditionalEdges))
	for from, ces := range g.conditionalEdges {
		ce := ces[0]
		routes := make(map[string]string, len(ce.routes))
		for k, v := range ce.routes {
			routes[k] = v
		}
		outcomes := ce.classifier.Outcomes
		if len(outcomes) == 0 {
			outcomes = sortedKeys(routes)
		}
		conditional[from] = conditionalEdge[S]{
			classifier: Classifier[S]{Outcomes: append([]string(nil), outcomes...), Classify: ce.classifier.Classify},
			routes:     routes,
		}
	}

	loops := make(map[string]loopEdge[S], len(g.loops))
	for from, le := range g.loops {
		loops[from] = le
	}

	finish := make(map[string]bool, len(g.finish))
	for id := range g.finish {
		finish[id] = true
	}

	successors := make(map[string][]string, len(order))
	predecessors := make(map[string][]string)
	for _, id := range order {
		var targets []string
		if to, ok := edges[id]; ok {
			targets = []string{to}
		} else if ce, ok := conditional[id]; ok {
			seen := make(map[string]bool)
			for _, outcome := range sortedKeys(ce.routes) {
				to := ce.routes[outcome]
				if !seen[to] {
					seen[to] = true
					targets = append(targets, to)
				}
			}
		}
		successors[id] = targets
		for _, to := range targets {
			if to != END {
				predecessors[to] = append(predecessors[to], id)
			}
		}
	}

	return &CompiledGraph[S, U]{
		nodes:        nodes,
		order:        order,
		edges:        edges,
		conditional:  conditional,
		loops:        loops,
		finish:       finish,
		entryPoint:   g.entryPoint,
		successors:   successors,
		predecessors: predecessors,
		stepBound:    g.stepBound(),
	}
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
