package ioc

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// Test capabilities
type Dep1 interface {
	Foo() int
}

type Dep2 interface {
	Bar() string
}

type Dep3 interface {
	Baz() bool
}

var (
	dep1 = NewToken("dep1")
	dep2 = NewToken("dep2")
	dep3 = NewToken("dep3")
)

// Test implementations
type ServiceA struct{}

func (ServiceA) Foo() int { return 666 }

type ServiceB struct {
	Dep1 Dep1
}

func (b *ServiceB) Bar() string { return strconv.Itoa(b.Dep1.Foo()) }

type ServiceC struct {
	Dep2 Dep2
}

func (c *ServiceC) Baz() bool { return c.Dep2.Bar() == "666" }

type ReusingC struct {
	Dep1 Dep1
	Dep2 Dep2
}

func (c *ReusingC) Baz() bool { return c.Dep2.Bar() == "666" }

type CircularA struct {
	Dep3 Dep3
}

func (a *CircularA) Foo() int { return 1 }

// Test constructors
func NewA() *ServiceA { return &ServiceA{} }
func NewB(d Dep1) *ServiceB { return &ServiceB{Dep1: d} }
func NewC(d Dep2) *ServiceC { return &ServiceC{Dep2: d} }
func NewReusingC(d1 Dep1, d2 Dep2) *ReusingC { return &ReusingC{Dep1: d1, Dep2: d2} }
func NewCircularA(d Dep3) *CircularA { return &CircularA{Dep3: d} }

// chained declares A(dep1) <- B(dep2) <- C(dep3).
func chained(t *testing.T) *MetadataTable {
	t.Helper()
	table := NewMetadataTable()
	require.NoError(t, table.Set(NewA, Metadata{Implements: dep1}))
	require.NoError(t, table.Set(NewB, Metadata{Implements: dep2, Requires: []*Token{dep1}}))
	require.NoError(t, table.Set(NewC, Metadata{Implements: dep3, Requires: []*Token{dep2}}))
	return table
}

// reused declares C(dep3) requiring both A(dep1) and B(dep2), where B also
// requires A.
func reused(t *testing.T) *MetadataTable {
	t.Helper()
	table := NewMetadataTable()
	require.NoError(t, table.Set(NewA, Metadata{Implements: dep1}))
	require.NoError(t, table.Set(NewB, Metadata{Implements: dep2, Requires: []*Token{dep1}}))
	require.NoError(t, table.Set(NewReusingC, Metadata{Implements: dep3, Requires: []*Token{dep1, dep2}}))
	return table
}

// circular declares A(dep1) -> dep3, B(dep2) -> dep1, C(dep3) -> dep2.
func circular(t *testing.T) *MetadataTable {
	t.Helper()
	table := NewMetadataTable()
	require.NoError(t, table.Set(NewCircularA, Metadata{Implements: dep1, Requires: []*Token{dep3}}))
	require.NoError(t, table.Set(NewB, Metadata{Implements: dep2, Requires: []*Token{dep1}}))
	require.NoError(t, table.Set(NewC, Metadata{Implements: dep3, Requires: []*Token{dep2}}))
	return table
}

// newContainer creates a container reading table and registers ctors.
func newContainer(t *testing.T, table *MetadataTable, ctors ...any) *Container {
	t.Helper()
	c := New(WithMetadata(table))
	for _, ctor := range ctors {
		require.NoError(t, c.Register(ctor))
	}
	return c
}

// namedFactory returns a factory that records its arguments.
func namedFactory(name string) *Factory {
	return &Factory{
		Name: name,
		Build: func(args []any) (any, error) {
			return &built{Name: name, Args: append([]any(nil), args...)}, nil
		},
	}
}

type built struct {
	Name string
	Args []any
}

// provideString declares a closure returning value as the constructor of
// token. Every call yields a new closure of the same literal.
func provideString(t *testing.T, table *MetadataTable, token *Token, value string) func() string {
	t.Helper()
	ctor := func() string { return value }
	require.NoError(t, table.Set(ctor, Metadata{Implements: token}))
	return ctor
}

// createNode asserts that node is a Create node and returns it.
func createNode(t *testing.T, node ResolveNode) *CreateNode {
	t.Helper()
	n, ok := node.(*CreateNode)
	require.True(t, ok, "expected *CreateNode, got %T", node)
	return n
}

// normal asserts that res is a normal resolution and returns it.
func normal(t *testing.T, res Resolution) *NormalResolution {
	t.Helper()
	n, ok := res.(*NormalResolution)
	require.True(t, ok, "expected *NormalResolution, got %T", res)
	return n
}

// cyclic asserts that res is a circular resolution and returns it.
func cyclic(t *testing.T, res Resolution) *CircularResolution {
	t.Helper()
	n, ok := res.(*CircularResolution)
	require.True(t, ok, "expected *CircularResolution, got %T", res)
	return n
}
