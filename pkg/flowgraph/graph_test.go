package flowgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewGraph verifies basic graph creation.
func TestNewGraph(t *testing.T) {
	graph := NewGraph[Counter, CounterUpdate]()
	assert.NotNil(t, graph)
	assert.NotNil(t, graph.nodes)
	assert.NotNil(t, graph.edges)
	assert.NotNil(t, graph.conditionalEdges)
	assert.NotNil(t, graph.loops)
	assert.Empty(t, graph.entryPoint)
}

// TestGraph_AddNode tests successful node addition.
func TestGraph_AddNode(t *testing.T) {
	graph := NewGraph[Counter, CounterUpdate]().
		AddNode("a", increment).
		AddNode("b", increment)

	assert.Len(t, graph.nodes, 2)
	assert.Contains(t, graph.nodes, "a")
	assert.Contains(t, graph.nodes, "b")
	assert.Equal(t, []string{"a", "b"}, graph.order)
}

// TestGraph_AddNode_Chaining tests fluent API chaining.
func TestGraph_AddNode_Chaining(t *testing.T) {
	graph := NewGraph[Counter, CounterUpdate]()
	result := graph.AddNode("a", increment)
	assert.Same(t, graph, result)
}

func TestGraph_AddNode_Increments(t *testing.T) {
	graph := NewGraph[testState, testUpdate]().
		AddNode("repair", noop, Increments("retries"), Increments("attempts")).
		AddNode("plain", noop)

	assert.True(t, graph.specs["repair"].increments["retries"])
	assert.True(t, graph.specs["repair"].increments["attempts"])
	assert.False(t, graph.specs["plain"].increments["retries"])
}

// TestGraph_AddNode_EmptyID_Panics tests that empty node ID panics.
func TestGraph_AddNode_EmptyID_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "flowgraph: node ID cannot be empty", func() {
		NewGraph[Counter, CounterUpdate]().AddNode("", increment)
	})
}

// TestGraph_AddNode_ReservedID_Panics tests that reserved IDs panic.
func TestGraph_AddNode_ReservedID_Panics(t *testing.T) {
	testCases := []struct {
		name string
		id   string
	}{
		{"END uppercase", "END"},
		{"end lowercase", "end"},
		{"End mixed case", "End"},
		{"__end__ literal", "__end__"},
		{"__END__ uppercase", "__END__"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.PanicsWithValue(t, "flowgraph: node ID cannot be reserved word 'END'", func() {
				NewGraph[Counter, CounterUpdate]().AddNode(tc.id, increment)
			})
		})
	}
}

// TestGraph_AddNode_WhitespaceID_Panics tests that IDs with whitespace panic.
func TestGraph_AddNode_WhitespaceID_Panics(t *testing.T) {
	for _, id := range []string{"node a", "node\ta", "node\na", " node", "node "} {
		t.Run(id, func(t *testing.T) {
			assert.PanicsWithValue(t, "flowgraph: node ID cannot contain whitespace", func() {
				NewGraph[Counter, CounterUpdate]().AddNode(id, increment)
			})
		})
	}
}

// TestGraph_AddNode_NilFunc_Panics tests that nil function panics.
func TestGraph_AddNode_NilFunc_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "flowgraph: node function cannot be nil", func() {
		NewGraph[Counter, CounterUpdate]().AddNode("a", nil)
	})
}

// TestGraph_AddNode_DuplicateID_Panics tests that duplicate IDs panic.
func TestGraph_AddNode_DuplicateID_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "flowgraph: duplicate node ID: a", func() {
		NewGraph[Counter, CounterUpdate]().
			AddNode("a", increment).
			AddNode("a", increment)
	})
}

// TestGraph_AddEdge tests edge addition.
func TestGraph_AddEdge(t *testing.T) {
	graph := NewGraph[Counter, CounterUpdate]().
		AddNode("a", increment).
		AddNode("b", increment).
		AddEdge("a", "b").
		AddEdge("b", END)

	assert.Equal(t, []string{"b"}, graph.edges["a"])
	assert.Equal(t, []string{END}, graph.edges["b"])
}

// TestGraph_AddEdge_MultipleFromSameNode records both; Compile rejects them.
func TestGraph_AddEdge_MultipleFromSameNode(t *testing.T) {
	graph := NewGraph[Counter, CounterUpdate]().
		AddEdge("a", "b").
		AddEdge("a", "c")

	assert.Equal(t, []string{"b", "c"}, graph.edges["a"])
}

// TestGraph_AddConditionalEdge tests conditional edge addition.
func TestGraph_AddConditionalEdge(t *testing.T) {
	routes := map[string]string{"left": "l", "right": "r"}
	graph := NewGraph[testState, testUpdate]().
		AddNode("check", noop).
		AddConditionalEdge("check", static("left", "left", "right"), routes)

	routes["left"] = "mutated"

	ces := graph.conditionalEdges["check"]
	if assert.Len(t, ces, 1) {
		assert.Equal(t, "l", ces[0].routes["left"], "routing table must be copied")
		assert.Equal(t, []string{"left", "right"}, ces[0].classifier.Outcomes)
	}
}

// TestGraph_AddConditionalEdge_NilRouter_Panics tests that nil router panics.
func TestGraph_AddConditionalEdge_NilRouter_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "flowgraph: router function cannot be nil", func() {
		NewGraph[testState, testUpdate]().AddConditionalEdge("check", Classifier[testState]{}, nil)
	})
}

func TestGraph_AddLoopEdge(t *testing.T) {
	graph := NewGraph[testState, testUpdate]().
		AddNode("attempt", noop).
		AddNode("repair", noop, Increments("retries")).
		AddLoopEdge("attempt", retryGuard(3), "repair", END)

	le, ok := graph.loops["attempt"]
	if assert.True(t, ok) {
		assert.Equal(t, "repair", le.continueTo)
		assert.Equal(t, END, le.doneTo)
		assert.Equal(t, "retries", le.guard.Name)
	}

	ces := graph.conditionalEdges["attempt"]
	if assert.Len(t, ces, 1) {
		assert.Equal(t, map[string]string{OutcomeContinue: "repair", OutcomeDone: END}, ces[0].routes)
		assert.Equal(t, []string{OutcomeContinue, OutcomeDone}, ces[0].classifier.Outcomes)
	}
}

func TestGraph_AddLoopEdge_Panics(t *testing.T) {
	t.Run("empty name", func(t *testing.T) {
		assert.PanicsWithValue(t, "flowgraph: loop guard name cannot be empty", func() {
			NewGraph[testState, testUpdate]().AddLoopEdge("a", LoopGuard[testState]{Counter: func(testState) int { return 0 }}, "b", END)
		})
	})

	t.Run("nil counter", func(t *testing.T) {
		assert.PanicsWithValue(t, "flowgraph: loop guard counter cannot be nil", func() {
			NewGraph[testState, testUpdate]().AddLoopEdge("a", LoopGuard[testState]{Name: "n"}, "b", END)
		})
	})
}

// TestGraph_SetEntry tests entry point setting.
func TestGraph_SetEntry(t *testing.T) {
	graph := NewGraph[Counter, CounterUpdate]().
		AddNode("start", increment).
		SetEntry("start")

	assert.Equal(t, "start", graph.entryPoint)
}

// TestGraph_SetEntry_CanBeOverwritten tests that entry can be changed.
func TestGraph_SetEntry_CanBeOverwritten(t *testing.T) {
	graph := NewGraph[Counter, CounterUpdate]().
		SetEntry("first").
		SetEntry("second")

	assert.Equal(t, "second", graph.entryPoint)
}

func TestGraph_SetFinish(t *testing.T) {
	graph := NewGraph[Counter, CounterUpdate]().
		AddNode("last", increment).
		SetFinish("last")

	assert.True(t, graph.finish["last"])
}

// TestGraph_FluentAPI tests full fluent API usage.
func TestGraph_FluentAPI(t *testing.T) {
	graph := NewGraph[Counter, CounterUpdate]().
		AddNode("a", increment).
		AddNode("b", increment).
		AddNode("c", increment).
		AddEdge("a", "b").
		AddEdge("b", "c").
		AddEdge("c", END).
		SetEntry("a")

	assert.Len(t, graph.nodes, 3)
	assert.Equal(t, "a", graph.entryPoint)
	assert.Len(t, graph.edges, 3)
}
