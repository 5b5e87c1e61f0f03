package workflow

import (
	"fmt"
	"strings"
)

// RenderMermaid renders the workflow as a Mermaid flowchart, one class per
// step kind.
func RenderMermaid(w *Workflow) string {
	var buf strings.Builder
	buf.WriteString("graph TD\n")

	nodeIDs := make(map[*Step]string, len(w.steps))
	for i, s := range w.steps {
		nodeID := fmt.Sprintf("s%d", i)
		nodeIDs[s] = nodeID
		buf.WriteString(fmt.Sprintf("    %s[%q]\n", nodeID, s.Name))
	}
	buf.WriteString("\n")

	for _, s := range w.steps {
		for _, p := range s.Parents {
			buf.WriteString(fmt.Sprintf("    %s --> %s\n", nodeIDs[p], nodeIDs[s]))
		}
	}
	buf.WriteString("\n")

	buf.WriteString("    classDef md fill:#FFD7B5,stroke:#D2691E\n")
	buf.WriteString("    classDef optimize fill:#B5D8FF,stroke:#4682B4\n")
	buf.WriteString("    classDef static fill:#90EE90,stroke:#228B22\n")

	for _, kind := range []Kind{KindMD, KindOptimize, KindStatic} {
		var nodes []string
		for _, s := range w.steps {
			if s.Kind == kind {
				nodes = append(nodes, nodeIDs[s])
			}
		}
		if len(nodes) > 0 {
			buf.WriteString(fmt.Sprintf("    class %s %s\n", strings.Join(nodes, ","), kind))
		}
	}
	return buf.String()
}

// RenderDOT renders the workflow as a Graphviz digraph.
func RenderDOT(w *Workflow) string {
	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("digraph %q {\n", w.name))
	buf.WriteString("    rankdir=TD;\n")
	buf.WriteString("    node [shape=box, style=rounded];\n\n")

	for _, s := range w.steps {
		buf.WriteString(fmt.Sprintf("    %q [label=%q, fillcolor=%s, style=filled];\n",
			s.Name, s.Name, kindColor(s.Kind)))
	}
	buf.WriteString("\n")

	for _, s := range w.steps {
		for _, p := range s.Parents {
			buf.WriteString(fmt.Sprintf("    %q -> %q;\n", p.Name, s.Name))
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

// RenderStages renders the parallel levels as plain text.
func RenderStages(w *Workflow) string {
	var buf strings.Builder
	buf.WriteString(w.name + "\n")
	for level, stage := range w.Stages() {
		buf.WriteString(fmt.Sprintf("Level %d:\n", level))
		for _, s := range stage {
			buf.WriteString(fmt.Sprintf("  [%s] %s\n", s.Kind, s.Name))
			if len(s.Parents) > 0 {
				buf.WriteString("      └─ after: " + strings.Join(s.ParentNames(), ", ") + "\n")
			}
		}
	}
	return buf.String()
}

func kindColor(k Kind) string {
	switch k {
	case KindMD:
		return "orange"
	case KindOptimize:
		return "lightblue"
	case KindStatic:
		return "lightgreen"
	default:
		return "lightgray"
	}
}
