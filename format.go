package ioc

import (
	"fmt"
	"strings"

	"github.com/junioryono/ioc/internal/reflection"
)

// FormatCycle renders a circular resolution on one line. Each node renders
// as "[<token> Constructor]", or "[Constructor]" without a token, joined by
// " -> ". The repeating segment is enclosed in "{{ " and " }}":
//
//	[Consumer] -> {{ [<dep1> A] -> [<dep3> C] -> [<dep2> B] -> [<dep1> A] }}
func FormatCycle(r *CircularResolution) string {
	if r == nil {
		return ""
	}

	var b strings.Builder
	for i, node := range r.Path {
		if i > 0 {
			b.WriteString(" -> ")
		}
		if i == r.Begin {
			b.WriteString("{{ ")
		}
		b.WriteString(formatCreate(node))
	}
	b.WriteString(" }}")

	return b.String()
}

func formatCreate(node *CreateNode) string {
	name := reflection.Name(node.Constructor)
	if node.Token != nil && node.Token.Name() != "" {
		return "[<" + node.Token.Name() + "> " + name + "]"
	}
	return "[" + name + "]"
}

// FormatPlan renders a plan with one node per line, for diagnostics.
//
//	0 Instance  <config> from "root"
//	1 Create    <db> NewDatabase(config) in "root"
//	2 Reference <db> -> 1
func FormatPlan(r *NormalResolution) string {
	if r == nil {
		return ""
	}

	var b strings.Builder
	for i, entry := range r.Path {
		fmt.Fprintf(&b, "%d %-9s ", i, entry.Kind())

		switch node := entry.(type) {
		case *CreateNode:
			deps := make([]string, len(node.Deps))
			for j, dep := range node.Deps {
				deps[j] = dep.Name()
			}
			if node.Token != nil {
				fmt.Fprintf(&b, "<%s> ", node.Token.Name())
			}
			fmt.Fprintf(&b, "%s(%s) in %q", reflection.Name(node.Constructor), strings.Join(deps, ", "), node.Owner.displayName())
		case *InstanceNode:
			fmt.Fprintf(&b, "<%s> from %q", node.Token.Name(), node.Owner.displayName())
		case *ReferenceNode:
			fmt.Fprintf(&b, "<%s> -> %d", node.Token.Name(), node.Index)
		}
		b.WriteString("\n")
	}

	return b.String()
}
