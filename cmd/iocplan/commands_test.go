package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/ioc"
)

const cyclicManifest = `
containers: [{name: app}]
tokens: [{name: a}, {name: b}]
bindings:
  - {name: NewA, implements: a, requires: [b]}
  - {name: NewB, implements: b, requires: [a]}
target: {token: a}
`

const brokenManifest = `
containers:
  - name: app
  - name: request
    parent: app
tokens: [{name: a}, {name: b}, {name: missing}]
bindings:
  - {name: NewA, container: app, implements: a}
  - {name: NewB, container: request, implements: b, requires: [missing]}
target: {token: b}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI with args and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--color=false"))
	err := cmd.Execute()
	return out.String(), err
}

func TestPlanCmd(t *testing.T) {
	t.Run("layered containers", func(t *testing.T) {
		manifest := writeFile(t, "ioc.yaml", layeredManifest)

		out, err := run(t, "plan", "-m", manifest)
		require.NoError(t, err)

		expected := "plan for <handler> in \"request\"\n" +
			"0 Instance  <config> from \"request\"\n" +
			"1 Create    <db> NewDatabase(config) in \"app\"\n" +
			"2 Instance  <config> from \"request\"\n" +
			"3 Create    <repo> NewRepo(db, config) in \"app\"\n" +
			"4 Reference <db> -> 1\n" +
			"5 Create    <handler> NewHandler(repo, db) in \"request\"\n"
		assert.Equal(t, expected, out)
	})

	t.Run("cycle", func(t *testing.T) {
		manifest := writeFile(t, "ioc.yaml", cyclicManifest)

		cmd := newRootCmd()
		var out, errOut bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		cmd.SetArgs([]string{"plan", "-m", manifest, "--color=false"})

		err := cmd.Execute()
		require.Error(t, err)
		assert.True(t, ioc.IsCircularDependency(err))
		assert.Equal(t, "circular dependency\n{{ [<a> NewA] -> [<b> NewB] -> [<a> NewA] }}\n", out.String())

		// The cycle is printed once, on standard output
		assert.Equal(t, "Error: plan for <a>: circular dependency detected\n", errOut.String())
	})

	t.Run("missing manifest", func(t *testing.T) {
		_, err := run(t, "plan", "-m", filepath.Join(t.TempDir(), "none.yaml"))
		assert.Error(t, err)
	})
}

func TestBuildCmd(t *testing.T) {
	manifest := writeFile(t, "ioc.yaml", layeredManifest)

	out, err := run(t, "build", "-m", manifest)
	require.NoError(t, err)

	assert.Equal(t, "0 NewDatabase(dev)\n"+
		"1 NewRepo(NewDatabase, dev)\n"+
		"2 NewHandler(NewRepo, NewDatabase)\n"+
		"built NewHandler(NewRepo, NewDatabase)\n", out)
}

func TestGraphCmd(t *testing.T) {
	manifest := writeFile(t, "ioc.yaml", layeredManifest)

	t.Run("text", func(t *testing.T) {
		out, err := run(t, "graph", "-m", manifest)
		require.NoError(t, err)
		assert.Contains(t, out, "Dependency Graph:")
		assert.Contains(t, out, "<handler> NewHandler (bound)")
		assert.Contains(t, out, "<config> (default)")
	})

	t.Run("dot", func(t *testing.T) {
		out, err := run(t, "graph", "-m", manifest, "--format", "dot")
		require.NoError(t, err)
		assert.Contains(t, out, "digraph dependencies {")
	})

	t.Run("format from config file", func(t *testing.T) {
		config := writeFile(t, "iocplan.yaml", "format: dot\n")

		out, err := run(t, "graph", "-m", manifest, "--config", config)
		require.NoError(t, err)
		assert.Contains(t, out, "digraph dependencies {")
	})

	t.Run("format from environment", func(t *testing.T) {
		t.Setenv("IOCPLAN_FORMAT", "dot")

		out, err := run(t, "graph", "-m", manifest)
		require.NoError(t, err)
		assert.Contains(t, out, "digraph dependencies {")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := run(t, "graph", "-m", manifest, "--format", "svg")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown format")
	})
}

func TestValidateCmd(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		manifest := writeFile(t, "ioc.yaml", layeredManifest)

		out, err := run(t, "validate", "-m", manifest)
		require.NoError(t, err)
		assert.Contains(t, out, "✓ app (2 bindings)")
		assert.Contains(t, out, "✓ request (1 bindings)")
	})

	t.Run("broken", func(t *testing.T) {
		manifest := writeFile(t, "ioc.yaml", brokenManifest)

		out, err := run(t, "validate", "-m", manifest)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, out, "✓ app")
		assert.Contains(t, out, "✗ request")
		assert.Contains(t, out, `cannot resolve "missing" from container "request"`)
	})
}
