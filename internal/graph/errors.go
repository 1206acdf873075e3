package graph

import (
	"errors"
	"strings"
)

// ErrCircularDependency is wrapped by every cycle reported by this package.
var ErrCircularDependency = errors.New("circular dependency detected")

// CycleError describes a cycle in the binding graph. Path starts and ends
// with the same node.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	for i, label := range e.Path {
		b.WriteString("    " + label + "\n")
		if i < len(e.Path)-1 {
			b.WriteString("      ↓\n")
		}
	}

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Bind one of the tokens to an instance with Add\n")
	b.WriteString("  • Give one of the tokens a default value\n")
	b.WriteString("  • Restructure to remove the circular relationship\n")

	return b.String()
}

func (e *CycleError) Unwrap() error {
	return ErrCircularDependency
}
