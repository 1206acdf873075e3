package ioc

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus metrics for containers. One Metrics value is
// shared by a container and the children created from it.
//
//	reg := prometheus.NewRegistry()
//	metrics, err := ioc.NewMetrics(reg)
//	c := ioc.New(ioc.WithMetrics(metrics))
type Metrics struct {
	resolutions          *prometheus.CounterVec
	constructions        *prometheus.CounterVec
	constructionDuration *prometheus.HistogramVec
}

const (
	resultResolved   = "resolved"
	resultCircular   = "circular"
	resultUnresolved = "unresolvable"
	resultError      = "error"
	resultSuccess    = "success"
	resultFailure    = "failure"
)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ioc",
				Name:      "resolutions_total",
				Help:      "Resolutions by outcome",
			},
			[]string{"result"},
		),
		constructions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ioc",
				Name:      "constructions_total",
				Help:      "Constructor invocations by owning container and outcome",
			},
			[]string{"container", "result"},
		),
		constructionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ioc",
				Name:      "construction_duration_seconds",
				Help:      "Time spent inside constructors",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"container"},
		),
	}

	for _, collector := range []prometheus.Collector{m.resolutions, m.constructions, m.constructionDuration} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeResolution(res Resolution, err error) {
	if m == nil {
		return
	}

	result := resultResolved
	switch {
	case errors.Is(err, ErrUnresolvable):
		result = resultUnresolved
	case err != nil:
		result = resultError
	default:
		if _, ok := res.(*CircularResolution); ok {
			result = resultCircular
		}
	}
	m.resolutions.WithLabelValues(result).Inc()
}

func (m *Metrics) observeConstruction(owner *Container, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	name := scopeLabel(owner)
	result := resultSuccess
	if err != nil {
		result = resultFailure
	}
	m.constructions.WithLabelValues(name, result).Inc()
	m.constructionDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// scopeLabel is the container label of a construction. Unnamed containers are
// labelled by their position instead of their id.
func scopeLabel(c *Container) string {
	switch {
	case c.name != "":
		return c.name
	case c.parent == nil:
		return "root"
	default:
		return "child"
	}
}
