package ioc

import (
	"io"

	"github.com/junioryono/ioc/internal/graph"
	"github.com/junioryono/ioc/internal/reflection"
)

// GraphCycleError describes a cycle found in the binding graph by
// ConstructionOrder. It wraps ErrCircularDependency.
type GraphCycleError = graph.CycleError

// bindingGraph builds the dependency graph seen from c: every token bound in
// c or an ancestor, and every token they require, with the provider a
// lookup from c would pick.
func (c *Container) bindingGraph() *graph.DependencyGraph {
	g := graph.NewDependencyGraph()

	var queue []*Token
	for current := c; current != nil; current = current.parent {
		queue = append(queue, current.order...)
	}

	seen := make(map[*Token]bool)
	for len(queue) > 0 {
		token := queue[0]
		queue = queue[1:]
		if seen[token] {
			continue
		}
		seen[token] = true

		node, err := c.lookup(token)
		if err != nil {
			g.AddNode(token, "<"+token.Name()+">", "", graph.Missing, nil)
			continue
		}

		switch n := node.(type) {
		case *CreateNode:
			deps := make([]any, len(n.Deps))
			for i, dep := range n.Deps {
				deps[i] = dep
				queue = append(queue, dep)
			}
			label := "<" + token.Name() + "> " + reflection.Name(n.Constructor)
			g.AddNode(token, label, n.Owner.displayName(), graph.Bound, deps)
		case *InstanceNode:
			kind := graph.Defaulted
			if n.Owner.HasInstance(token) {
				kind = graph.Cached
			}
			g.AddNode(token, "<"+token.Name()+">", n.Owner.displayName(), kind, nil)
		}
	}

	return g
}

// ConstructionOrder returns the constructor-bound tokens visible from c,
// ordered so that every token follows the tokens it requires. It reports a
// *GraphCycleError if the bindings form a cycle.
func (c *Container) ConstructionOrder() ([]*Token, error) {
	sorted, err := c.bindingGraph().TopologicalSort()
	if err != nil {
		return nil, err
	}

	order := make([]*Token, 0, len(sorted))
	for _, node := range sorted {
		if node.Kind == graph.Bound {
			order = append(order, node.Key.(*Token))
		}
	}
	return order, nil
}

// WriteDOT writes the binding graph seen from c in Graphviz DOT format.
func (c *Container) WriteDOT(w io.Writer) error {
	return graph.NewVisualizer(c.bindingGraph()).WriteDOT(w)
}

// WriteText writes a human-readable listing of the binding graph seen from c.
func (c *Container) WriteText(w io.Writer) error {
	return graph.NewVisualizer(c.bindingGraph()).WriteText(w)
}
