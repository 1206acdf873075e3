package ioc

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample returns the counter value, or histogram sample count, of the series
// in family name whose labels match.
func sample(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	series:
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if labels[pair.GetName()] != pair.GetValue() {
					continue series
				}
			}
			if h := metric.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	root := New(WithName("root"), WithMetadata(chained(t)), WithMetrics(metrics))
	require.NoError(t, root.Register(NewA))
	require.NoError(t, root.Register(NewB))
	request := root.NewChild(WithName("request"))
	require.NoError(t, request.Register(NewC))

	_, err = request.Get(dep3)
	require.NoError(t, err)

	assert.Equal(t, 1.0, sample(t, reg, "ioc_resolutions_total", map[string]string{"result": "resolved"}))
	assert.Equal(t, 2.0, sample(t, reg, "ioc_constructions_total", map[string]string{"container": "root", "result": "success"}))
	assert.Equal(t, 1.0, sample(t, reg, "ioc_constructions_total", map[string]string{"container": "request", "result": "success"}))
	assert.Equal(t, 2.0, sample(t, reg, "ioc_construction_duration_seconds", map[string]string{"container": "root"}))

	_, err = root.Get(NewToken("missing"))
	require.Error(t, err)
	assert.Equal(t, 1.0, sample(t, reg, "ioc_resolutions_total", map[string]string{"result": "unresolvable"}))

	_, err = root.Resolve(42)
	require.Error(t, err)
	assert.Equal(t, 1.0, sample(t, reg, "ioc_resolutions_total", map[string]string{"result": "error"}))
}

func TestMetrics_CircularAndFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	c := New(WithName("app"), WithMetadata(circular(t)), WithMetrics(metrics))
	require.NoError(t, c.Register(NewCircularA))
	require.NoError(t, c.Register(NewB))
	require.NoError(t, c.Register(NewC))

	_, err = c.Get(dep1)
	require.True(t, IsCircularDependency(err))
	assert.Equal(t, 1.0, sample(t, reg, "ioc_resolutions_total", map[string]string{"result": "circular"}))

	broken := NewToken("broken")
	table := NewMetadataTable()
	factory := &Factory{Name: "Broken", Build: func([]any) (any, error) { return nil, errors.New("down") }}
	require.NoError(t, table.Set(factory, Metadata{Implements: broken}))

	failing := New(WithName("failing"), WithMetadata(table), WithMetrics(metrics))
	require.NoError(t, failing.Register(factory))

	_, err = failing.Get(broken)
	require.Error(t, err)
	assert.Equal(t, 1.0, sample(t, reg, "ioc_constructions_total", map[string]string{"container": "failing", "result": "failure"}))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	var already prometheus.AlreadyRegisteredError
	assert.True(t, errors.As(err, &already))
}

func TestMetrics_Disabled(t *testing.T) {
	c := newContainer(t, chained(t), NewA)

	value, err := c.Get(dep1)
	require.NoError(t, err)
	assert.IsType(t, &ServiceA{}, value)
}

func TestMetrics_UnnamedContainersStayBounded(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	root := New(WithMetadata(chained(t)), WithMetrics(metrics))
	require.NoError(t, root.Register(NewA))

	for i := 0; i < 3; i++ {
		child := root.NewChild()
		require.NoError(t, child.Register(NewB))
		_, err := child.Get(dep2)
		require.NoError(t, err)
	}

	assert.Equal(t, 1.0, sample(t, reg, "ioc_constructions_total", map[string]string{"container": "root", "result": "success"}))
	assert.Equal(t, 3.0, sample(t, reg, "ioc_constructions_total", map[string]string{"container": "child", "result": "success"}))
	assert.Equal(t, "root", scopeLabel(root))
}

func TestMetrics_ValidateIsNotCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	c := New(WithMetadata(chained(t)), WithMetrics(metrics))
	require.NoError(t, c.Register(NewB))
	require.NoError(t, c.Register(NewC))

	require.Error(t, c.Validate())

	for _, result := range []string{"resolved", "circular", "unresolvable", "error"} {
		assert.Zero(t, sample(t, reg, "ioc_resolutions_total", map[string]string{"result": result}), result)
	}
}
