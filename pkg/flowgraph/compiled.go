package flowgraph

// CompiledGraph is an immutable, executable graph.
// It is created by calling Compile() on a Graph builder.
//
// CompiledGraph is thread-safe and can be used concurrently for multiple
// Run() calls. The graph structure cannot be modified after compilation.
//
// Use the introspection methods (NodeIDs, Successors, Routes, etc.) to
// examine the graph structure for debugging or visualization.
type CompiledGraph[S State[S, U], U any] struct {
	nodes       map[string]NodeFunc[S, U]
	order       []string
	edges       map[string]string
	conditional map[string]conditionalEdge[S]
	loops       map[string]loopEdge[S]
	finish      map[string]bool
	entryPoint  string

	// Pre-computed for efficient lookup
	successors   map[string][]string
	predecessors map[string][]string
	stepBound    int
}

// LoopInfo describes a guarded loop edge.
type LoopInfo struct {
	Name       string
	From       string
	ContinueTo string
	DoneTo     string
	Max        int
}

// EntryPoint returns the entry node ID.
func (cg *CompiledGraph[S, U]) EntryPoint() string {
	return cg.entryPoint
}

// NodeIDs returns all node identifiers in the order they were added.
func (cg *CompiledGraph[S, U]) NodeIDs() []string {
	ids := make([]string, len(cg.order))
	copy(ids, cg.order)
	return ids
}

// HasNode checks if a node exists in the graph.
func (cg *CompiledGraph[S, U]) HasNode(id string) bool {
	_, exists := cg.nodes[id]
	return exists
}

// Successors returns every node ID (or END) the given node can route to.
// For conditional edges this is the set of route targets.
// Returns nil for END, finish nodes and unknown nodes.
func (cg *CompiledGraph[S, U]) Successors(id string) []string {
	if id == END {
		return nil
	}
	return cg.successors[id]
}

// Predecessors returns the node IDs that have edges to the given node.
// Returns nil for the entry node or unknown nodes.
func (cg *CompiledGraph[S, U]) Predecessors(id string) []string {
	return cg.predecessors[id]
}

// IsConditional returns true if the node has a conditional edge.
func (cg *CompiledGraph[S, U]) IsConditional(id string) bool {
	_, ok := cg.conditional[id]
	return ok
}

// IsFinish returns true if the node ends the run after executing.
func (cg *CompiledGraph[S, U]) IsFinish(id string) bool {
	return cg.finish[id]
}

// Routes returns a copy of the node's routing table, or nil when the node
// has no conditional edge.
func (cg *CompiledGraph[S, U]) Routes(id string) map[string]string {
	ce, ok := cg.conditional[id]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(ce.routes))
	for k, v := range ce.routes {
		out[k] = v
	}
	return out
}

// Outcomes returns the declared outcome labels of the node's classifier.
func (cg *CompiledGraph[S, U]) Outcomes(id string) []string {
	ce, ok := cg.conditional[id]
	if !ok {
		return nil
	}
	return append([]string(nil), ce.classifier.Outcomes...)
}

// Loops returns every loop edge, sorted by source node.
func (cg *CompiledGraph[S, U]) Loops() []LoopInfo {
	out := make([]LoopInfo, 0, len(cg.loops))
	for _, from := range sortedKeys(cg.loops) {
		le := cg.loops[from]
		out = append(out, LoopInfo{
			Name:       le.guard.Name,
			From:       le.from,
			ContinueTo: le.continueTo,
			DoneTo:     le.doneTo,
			Max:        le.guard.max(),
		})
	}
	return out
}

// StepBound returns the worst-case number of step executions in one run:
// the node count times the product of (1 + Max) over every loop guard.
// Run uses it as the default iteration limit.
func (cg *CompiledGraph[S, U]) StepBound() int {
	return cg.stepBound
}

// getNode returns the node function for the given ID.
// Used internally by the executor.
func (cg *CompiledGraph[S, U]) getNode(id string) (NodeFunc[S, U], bool) {
	fn, exists := cg.nodes[id]
	return fn, exists
}
