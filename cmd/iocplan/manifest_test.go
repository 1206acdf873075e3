package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/junioryono/ioc"
)

const layeredManifest = `
containers:
  - name: app
  - name: request
    parent: app
tokens:
  - name: config
    default: dev
  - name: db
  - name: repo
  - name: handler
bindings:
  - name: NewDatabase
    container: app
    implements: db
    requires: [config]
  - name: NewRepo
    container: app
    implements: repo
    requires: [db, config]
  - name: NewHandler
    container: request
    implements: handler
    requires: [repo, db]
  - name: Report
    requires: [handler]
    register: false
target:
  container: request
  token: handler
`

func decode(t *testing.T, doc string) *Manifest {
	t.Helper()
	m, err := DecodeManifest(strings.NewReader(doc))
	require.NoError(t, err)
	return m
}

func TestManifest_Build(t *testing.T) {
	m := decode(t, layeredManifest)

	ws, err := m.Build(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"app", "request"}, ws.ContainerNames())
	assert.Same(t, ws.Containers["app"], ws.Containers["request"].Parent())
	assert.Len(t, ws.Tokens, 4)
	assert.Len(t, ws.Bindings, 4)

	assert.True(t, ws.Containers["app"].IsRegistered(ws.Tokens["db"]))
	assert.True(t, ws.Containers["request"].IsRegistered(ws.Tokens["handler"]))
	assert.False(t, ws.Containers["app"].IsRegistered(ws.Tokens["handler"]))

	def, ok := ws.Tokens["config"].Default()
	require.True(t, ok)
	assert.Equal(t, "dev", def)
	_, ok = ws.Tokens["db"].Default()
	assert.False(t, ok)
}

func TestWorkspace_Target(t *testing.T) {
	ws, err := decode(t, layeredManifest).Build(zap.NewNop())
	require.NoError(t, err)

	c, target, err := ws.Target(TargetSpec{Container: "request", Token: "handler"})
	require.NoError(t, err)
	assert.Same(t, ws.Containers["request"], c)
	assert.Same(t, ws.Tokens["handler"], target)

	c, target, err = ws.Target(TargetSpec{Binding: "Report"})
	require.NoError(t, err)
	assert.Equal(t, "request", c.Name(), "defaults to the last container")
	assert.Same(t, ws.Bindings["Report"], target)

	_, _, err = ws.Target(TargetSpec{})
	assert.ErrorIs(t, err, ErrNoTarget)

	_, _, err = ws.Target(TargetSpec{Token: "handler", Binding: "Report"})
	assert.ErrorIs(t, err, ErrNoTarget)

	_, _, err = ws.Target(TargetSpec{Token: "nope"})
	assert.ErrorIs(t, err, ErrUnknownToken)

	_, _, err = ws.Target(TargetSpec{Binding: "nope"})
	assert.ErrorIs(t, err, ErrUnknownBinding)

	_, _, err = ws.Target(TargetSpec{Container: "nope", Token: "handler"})
	assert.ErrorIs(t, err, ErrUnknownContainer)
}

func TestWorkspace_Construct(t *testing.T) {
	ws, err := decode(t, layeredManifest).Build(zap.NewNop())
	require.NoError(t, err)

	c, target, err := ws.Target(TargetSpec{Binding: "Report"})
	require.NoError(t, err)

	value, err := c.Consume(target)
	require.NoError(t, err)
	assert.Equal(t, "Report(NewHandler)", value.(*Built).String())

	names := make([]string, len(ws.Built))
	for i, built := range ws.Built {
		names[i] = built.String()
	}
	assert.Equal(t, []string{
		"NewDatabase(dev)",
		"NewRepo(NewDatabase, dev)",
		"NewHandler(NewRepo, NewDatabase)",
		"Report(NewHandler)",
	}, names)
}

func TestManifest_BuildErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		err  error
	}{
		{
			name: "no containers",
			doc:  "tokens: [{name: a}]",
			err:  ErrNoContainers,
		},
		{
			name: "parent declared later",
			doc: `
containers:
  - {name: child, parent: root}
  - {name: root}`,
			err: ErrUnknownContainer,
		},
		{
			name: "duplicate token",
			doc: `
containers: [{name: app}]
tokens: [{name: a}, {name: a}]`,
			err: ErrDuplicateName,
		},
		{
			name: "duplicate container",
			doc: `
containers: [{name: app}, {name: app}]`,
			err: ErrDuplicateName,
		},
		{
			name: "unknown required token",
			doc: `
containers: [{name: app}]
tokens: [{name: a}]
bindings: [{name: NewA, implements: a, requires: [b]}]`,
			err: ErrUnknownToken,
		},
		{
			name: "unknown binding container",
			doc: `
containers: [{name: app}]
tokens: [{name: a}]
bindings: [{name: NewA, container: other, implements: a}]`,
			err: ErrUnknownContainer,
		},
		{
			name: "registered without token",
			doc: `
containers: [{name: app}]
bindings: [{name: NewA}]`,
			err: ioc.ErrMissingToken,
		},
		{
			name: "token bound twice",
			doc: `
containers: [{name: app}]
tokens: [{name: a}]
bindings: [{name: NewA, implements: a}, {name: OtherA, implements: a}]`,
			err: ioc.ErrAlreadyRegistered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode(t, tt.doc).Build(zap.NewNop())
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDecodeManifest_UnknownField(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader("containers: [{name: app, parnt: x}]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing manifest")
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest("does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening manifest")
}
