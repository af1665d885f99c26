package flowgraph

import (
	"fmt"
	"strings"
)

// MermaidOverlay marks run progress on a rendered graph.
type MermaidOverlay struct {
	Visited []string
	Current string
}

// Mermaid renders the graph as a Mermaid flowchart.
//
// Shapes: the entry step is a circle, finish steps are subroutines, END is a
// stadium. Conditional routes carry their outcome label; the continue route
// of a loop edge is dotted and annotated with the guard's counter and budget.
// A non-nil overlay styles visited and current steps.
func (cg *CompiledGraph[S, U]) Mermaid(overlay *MermaidOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	endUsed := false
	for _, id := range cg.order {
		safeID := sanitizeMermaidID(id)

		opener, closer := "[", "]"
		switch {
		case id == cg.entryPoint:
			opener, closer = "((", "))"
		case cg.finish[id]:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, id, closer)

		if to, ok := cg.edges[id]; ok {
			endUsed = endUsed || to == END
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(to))
			continue
		}

		ce, ok := cg.conditional[id]
		if !ok {
			continue
		}
		le, isLoop := cg.loops[id]
		for _, outcome := range sortedKeys(ce.routes) {
			to := ce.routes[outcome]
			endUsed = endUsed || to == END
			label := strings.ReplaceAll(outcome, "\"", "'")
			if isLoop && outcome == OutcomeContinue {
				fmt.Fprintf(&sb, "    %s -. \"%s %s<%d\" .-> %s\n", safeID, label, le.guard.Name, le.guard.max(), sanitizeMermaidID(to))
				continue
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, label, sanitizeMermaidID(to))
		}
	}

	if endUsed {
		fmt.Fprintf(&sb, "    %s([\"END\"])\n", sanitizeMermaidID(END))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Visited {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] && cg.HasNode(id) {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.Current != "" && cg.HasNode(overlay.Current) {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	if id == END {
		return "END_"
	}
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_")
	return r.Replace(id)
}
