package graph

import (
	"fmt"
)

// NodeKind describes how a node's value is provided.
type NodeKind int

const (
	// Bound nodes have a constructor binding.
	Bound NodeKind = iota
	// Cached nodes have an instance in a container cache.
	Cached
	// Defaulted nodes fall back to their token's default value.
	Defaulted
	// Missing nodes are required but cannot be provided.
	Missing
)

func (k NodeKind) String() string {
	switch k {
	case Bound:
		return "bound"
	case Cached:
		return "cached"
	case Defaulted:
		return "default"
	case Missing:
		return "missing"
	default:
		return "unknown"
	}
}

// Node represents one key in the dependency graph.
type Node struct {
	Key   any
	Label string
	Owner string
	Kind  NodeKind

	// Dependency information, in declaration order
	Dependencies []any
	Dependents   []any

	// Depth is the length of the longest dependency chain below the node,
	// or -1 when the node sits on or above a cycle.
	Depth int
}

// DependencyGraph records dependency edges between keys. Iteration follows
// insertion order so results are deterministic.
//
// DependencyGraph is not safe for concurrent use.
type DependencyGraph struct {
	nodes map[any]*Node
	order []any
}

// NewDependencyGraph creates an empty dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[any]*Node),
	}
}

// AddNode adds or replaces a node and its outgoing edges. Dependencies not
// yet in the graph are added as Missing placeholders until they are added
// themselves.
func (g *DependencyGraph) AddNode(key any, label, owner string, kind NodeKind, dependencies []any) *Node {
	node := g.ensure(key)
	node.Label = label
	node.Owner = owner
	node.Kind = kind
	node.Dependencies = append([]any(nil), dependencies...)

	for _, dep := range dependencies {
		g.ensure(dep)
	}

	g.updateDependents()
	return node
}

func (g *DependencyGraph) ensure(key any) *Node {
	if node, ok := g.nodes[key]; ok {
		return node
	}

	node := &Node{
		Key:   key,
		Label: fmt.Sprint(key),
		Kind:  Missing,
	}
	g.nodes[key] = node
	g.order = append(g.order, key)
	return node
}

// updateDependents rebuilds the reverse edges.
func (g *DependencyGraph) updateDependents() {
	for _, node := range g.nodes {
		node.Dependents = nil
	}
	for _, key := range g.order {
		for _, dep := range g.nodes[key].Dependencies {
			depNode := g.nodes[dep]
			depNode.Dependents = append(depNode.Dependents, key)
		}
	}
}

// Node returns the node for key, or nil.
func (g *DependencyGraph) Node(key any) *Node {
	return g.nodes[key]
}

// Nodes returns all nodes in insertion order.
func (g *DependencyGraph) Nodes() []*Node {
	result := make([]*Node, 0, len(g.order))
	for _, key := range g.order {
		result = append(result, g.nodes[key])
	}
	return result
}

// Size returns the number of nodes in the graph.
func (g *DependencyGraph) Size() int {
	return len(g.nodes)
}

// TopologicalSort returns nodes with every dependency before its dependents,
// using Kahn's algorithm seeded in insertion order.
func (g *DependencyGraph) TopologicalSort() ([]*Node, error) {
	result := g.kahn()

	if len(result) != len(g.nodes) {
		if err := g.DetectCycles(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: graph contains %d nodes but only %d could be sorted",
			ErrCircularDependency, len(g.nodes), len(result))
	}

	return result, nil
}

// kahn returns the nodes that can be ordered; nodes on or above a cycle are
// left out.
func (g *DependencyGraph) kahn() []*Node {
	pending := make(map[any]int, len(g.nodes))
	queue := make([]any, 0)
	for _, key := range g.order {
		pending[key] = len(g.nodes[key].Dependencies)
		if pending[key] == 0 {
			queue = append(queue, key)
		}
	}

	result := make([]*Node, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.nodes[current]
		result = append(result, node)

		for _, dependent := range node.Dependents {
			pending[dependent]--
			if pending[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	return result
}

// DetectCycles returns a *CycleError describing the first cycle reachable
// from the nodes in insertion order, or nil if the graph is acyclic.
func (g *DependencyGraph) DetectCycles() error {
	type frame struct {
		key    any
		cursor int
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[any]int, len(g.nodes))

	for _, start := range g.order {
		if state[start] != unvisited {
			continue
		}

		stack := []*frame{{key: start}}
		state[start] = visiting

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			deps := g.nodes[top.key].Dependencies

			if top.cursor == len(deps) {
				state[top.key] = done
				stack = stack[:len(stack)-1]
				continue
			}

			next := deps[top.cursor]
			top.cursor++

			switch state[next] {
			case visiting:
				var path []string
				inCycle := false
				for _, f := range stack {
					if f.key == next {
						inCycle = true
					}
					if inCycle {
						path = append(path, g.nodes[f.key].Label)
					}
				}
				path = append(path, g.nodes[next].Label)
				return &CycleError{Path: path}
			case unvisited:
				state[next] = visiting
				stack = append(stack, &frame{key: next})
			}
		}
	}

	return nil
}

// IsAcyclic returns true if the graph has no cycles.
func (g *DependencyGraph) IsAcyclic() bool {
	return g.DetectCycles() == nil
}

// Roots returns the nodes nothing depends on.
func (g *DependencyGraph) Roots() []*Node {
	roots := make([]*Node, 0)
	for _, key := range g.order {
		if node := g.nodes[key]; len(node.Dependents) == 0 {
			roots = append(roots, node)
		}
	}
	return roots
}

// Leaves returns the nodes without dependencies.
func (g *DependencyGraph) Leaves() []*Node {
	leaves := make([]*Node, 0)
	for _, key := range g.order {
		if node := g.nodes[key]; len(node.Dependencies) == 0 {
			leaves = append(leaves, node)
		}
	}
	return leaves
}

// CalculateDepths assigns each node the length of its longest dependency
// chain. Nodes whose chain runs into a cycle get -1.
func (g *DependencyGraph) CalculateDepths() {
	for _, node := range g.nodes {
		node.Depth = -1
	}

	for _, node := range g.kahn() {
		depth := 0
		for _, dep := range node.Dependencies {
			if d := g.nodes[dep].Depth + 1; d > depth {
				depth = d
			}
		}
		node.Depth = depth
	}
}

// String returns a string representation of the node
func (n *Node) String() string {
	return fmt.Sprintf("Node{%s, %s, deps:%d, dependents:%d, depth:%d}",
		n.Label, n.Kind, len(n.Dependencies), len(n.Dependents), n.Depth)
}
