// Command iocplan resolves a YAML manifest of tokens and bindings and prints
// the construction plan, the binding graph or validation results.
package main

import (
	"os"
)

// Build information injected via ldflags at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
