package graph

import (
	"fmt"
	"io"
	"strings"
)

// Visualizer provides methods to visualize the dependency graph
type Visualizer struct {
	graph *DependencyGraph
}

// NewVisualizer creates a new graph visualizer
func NewVisualizer(graph *DependencyGraph) *Visualizer {
	return &Visualizer{graph: graph}
}

// WriteDOT writes the graph in Graphviz DOT format. Edges point from a node
// to its dependencies.
func (v *Visualizer) WriteDOT(w io.Writer) error {
	var b strings.Builder

	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	ids := make(map[any]string, v.graph.Size())
	for i, node := range v.graph.Nodes() {
		id := fmt.Sprintf("n%d", i)
		ids[node.Key] = id

		fmt.Fprintf(&b, "  %s [label=\"%s\", fillcolor=\"%s\", style=filled];\n",
			id, escapeDOT(v.formatNodeLabel(node)), nodeColor(node))
	}

	for _, node := range v.graph.Nodes() {
		for _, dep := range node.Dependencies {
			fmt.Fprintf(&b, "  %s -> %s;\n", ids[node.Key], ids[dep])
		}
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteText writes a text representation of the graph grouped by depth.
func (v *Visualizer) WriteText(w io.Writer) error {
	var b strings.Builder

	b.WriteString("Dependency Graph:\n")
	b.WriteString("=================\n\n")

	v.graph.CalculateDepths()
	groups := make(map[int][]*Node)
	maxDepth := -1
	for _, node := range v.graph.Nodes() {
		groups[node.Depth] = append(groups[node.Depth], node)
		if node.Depth > maxDepth {
			maxDepth = node.Depth
		}
	}

	for depth := 0; depth <= maxDepth; depth++ {
		nodes, ok := groups[depth]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "Level %d:\n", depth)
		b.WriteString("--------\n")
		for _, node := range nodes {
			v.writeNodeDetails(&b, node, "  ")
		}
		b.WriteString("\n")
	}

	if cyclic, ok := groups[-1]; ok {
		b.WriteString("Nodes in Cycles:\n")
		b.WriteString("----------------\n")
		for _, node := range cyclic {
			v.writeNodeDetails(&b, node, "  ")
		}
		b.WriteString("\n")
	}

	v.writeStatistics(&b)

	_, err := io.WriteString(w, b.String())
	return err
}

// formatNodeLabel creates a label for a node
func (v *Visualizer) formatNodeLabel(node *Node) string {
	if node.Owner != "" {
		return fmt.Sprintf("%s\\n%s @ %s", node.Label, node.Kind, node.Owner)
	}
	return fmt.Sprintf("%s\\n%s", node.Label, node.Kind)
}

func nodeColor(node *Node) string {
	switch node.Kind {
	case Bound:
		return "lightblue"
	case Cached:
		return "lightgreen"
	case Defaulted:
		return "lightyellow"
	default:
		return "lightgray"
	}
}

func escapeDOT(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// writeNodeDetails writes detailed information about a node
func (v *Visualizer) writeNodeDetails(b *strings.Builder, node *Node, indent string) {
	fmt.Fprintf(b, "%s%s (%s)\n", indent, node.Label, node.Kind)

	if node.Owner != "" {
		fmt.Fprintf(b, "%s  Owner: %s\n", indent, node.Owner)
	}

	if len(node.Dependencies) > 0 {
		fmt.Fprintf(b, "%s  Dependencies: [%s]\n", indent, strings.Join(v.labels(node.Dependencies), ", "))
	}

	if len(node.Dependents) > 0 {
		fmt.Fprintf(b, "%s  Dependents: [%s]\n", indent, strings.Join(v.labels(node.Dependents), ", "))
	}
}

func (v *Visualizer) labels(keys []any) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = v.graph.Node(key).Label
	}
	return out
}

// writeStatistics writes graph statistics
func (v *Visualizer) writeStatistics(b *strings.Builder) {
	b.WriteString("Statistics:\n")
	b.WriteString("-----------\n")
	fmt.Fprintf(b, "  Total nodes: %d\n", v.graph.Size())
	fmt.Fprintf(b, "  Total edges: %d\n", v.countEdges())
	fmt.Fprintf(b, "  Root nodes (no dependents): %d\n", len(v.graph.Roots()))
	fmt.Fprintf(b, "  Leaf nodes (no dependencies): %d\n", len(v.graph.Leaves()))

	if v.graph.IsAcyclic() {
		b.WriteString("  Cycles: None (graph is acyclic)\n")
	} else {
		b.WriteString("  Cycles: DETECTED (graph contains circular dependencies)\n")
	}
}

// countEdges counts the total number of edges in the graph
func (v *Visualizer) countEdges() int {
	count := 0
	for _, node := range v.graph.Nodes() {
		count += len(node.Dependencies)
	}
	return count
}
