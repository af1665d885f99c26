package benchmarks

import (
	"fmt"
	"testing"

	"github.com/randalmurphal/uitestgen/pkg/flowgraph"
)

// State carries just enough to drive routing and loop guards.
type State struct {
	Value       int
	Reflections int
	Retries     int
	Passed      bool
	Error       string
}

type Update struct {
	Value       *int
	Reflections *int
	Retries     *int
	Passed      *bool
}

func (s State) Merge(u Update) State {
	flowgraph.MergeField(&s.Value, u.Value)
	flowgraph.MergeCounter(&s.Reflections, u.Reflections)
	flowgraph.MergeCounter(&s.Retries, u.Retries)
	flowgraph.MergeField(&s.Passed, u.Passed)
	return s
}

func (s State) RecordError(err error) State {
	s.Error = err.Error()
	return s
}

func noopNode(flowgraph.Context, State) (Update, error) {
	return Update{}, nil
}

var sizes = []int{5, 10, 50, 100}

func BenchmarkAddNode(b *testing.B) {
	for _, n := range sizes {
		b.Run(fmt.Sprintf("nodes=%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				g := flowgraph.NewGraph[State, Update]()
				for j := 0; j < n; j++ {
					g.AddNode(nodeID(j), noopNode)
				}
			}
		})
	}
}

func BenchmarkCompile(b *testing.B) {
	for _, n := range sizes {
		g := buildLinearGraph(n)
		b.Run(fmt.Sprintf("linear=%d", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = g.Compile()
			}
		})
	}

	b.Run("login", func(b *testing.B) {
		g := buildLoginGraph(3, 2)
		for i := 0; i < b.N; i++ {
			_, _ = g.Compile()
		}
	})
}

// BenchmarkMermaid renders the login-shaped graph with a run overlay.
func BenchmarkMermaid(b *testing.B) {
	compiled := mustCompile(buildLoginGraph(3, 2))
	overlay := &flowgraph.MermaidOverlay{Visited: []string{"load_page", "generate_code"}, Current: "review_code"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = compiled.Mermaid(overlay)
	}
}

func nodeID(n int) string {
	return fmt.Sprintf("step_%03d", n)
}

func mustCompile(g *flowgraph.Graph[State, Update]) *flowgraph.CompiledGraph[State, Update] {
	compiled, err := g.Compile()
	if err != nil {
		panic(err)
	}
	return compiled
}

func buildLinearGraph(n int) *flowgraph.Graph[State, Update] {
	g := flowgraph.NewGraph[State, Update]()
	for i := 0; i < n; i++ {
		g.AddNode(nodeID(i), noopNode)
	}
	for i := 0; i < n-1; i++ {
		g.AddEdge(nodeID(i), nodeID(i+1))
	}
	return g.AddEdge(nodeID(n-1), flowgraph.END).SetEntry(nodeID(0))
}

// buildLoginGraph mirrors the shape of the login-test graph: a review loop
// bounded by maxReflections, then a test-and-repair loop bounded by
// maxRetries whose test never passes.
func buildLoginGraph(maxRetries, maxReflections int) *flowgraph.Graph[State, Update] {
	auth := func(_ flowgraph.Context, s State) string {
		if s.Value%2 == 0 {
			return "required"
		}
		return "not_required"
	}
	review := func(_ flowgraph.Context, s State) (Update, error) {
		return Update{Reflections: flowgraph.Set(s.Reflections + 1)}, nil
	}
	repair := func(_ flowgraph.Context, s State) (Update, error) {
		return Update{Retries: flowgraph.Set(s.Retries + 1)}, nil
	}

	return flowgraph.NewGraph[State, Update]().
		AddNode("check_auth", noopNode).
		AddNode("handle_auth", noopNode).
		AddNode("load_page", noopNode).
		AddNode("generate_code", noopNode).
		AddNode("review_code", review, flowgraph.Increments("reflections")).
		AddNode("run_test", noopNode).
		AddNode("repair_code", repair, flowgraph.Increments("retries")).
		AddConditionalEdge("check_auth", flowgraph.NewClassifier(auth, "required", "not_required"), map[string]string{
			"required":     "handle_auth",
			"not_required": "load_page",
		}).
		AddEdge("handle_auth", flowgraph.END).
		AddEdge("load_page", "generate_code").
		AddEdge("generate_code", "review_code").
		AddLoopEdge("review_code", flowgraph.LoopGuard[State]{
			Name:    "reflections",
			Counter: func(s State) int { return s.Reflections },
			Max:     maxReflections,
		}, "generate_code", "run_test").
		AddEdge("run_test", "repair_code").
		AddLoopEdge("repair_code", flowgraph.LoopGuard[State]{
			Name:    "retries",
			Counter: func(s State) int { return s.Retries },
			Max:     maxRetries,
			Done:    func(s State) bool { return s.Passed },
		}, "run_test", flowgraph.END).
		SetEntry("check_auth")
}
