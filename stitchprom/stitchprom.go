// Package stitchprom exports container activity as Prometheus metrics
// through the stitch observer hooks.
package stitchprom

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/danpasecinic/stitch"
	ireflect "github.com/danpasecinic/stitch/internal/reflect"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

type Config struct {
	Namespace string
	// Buckets for the resolve and compile histograms, in seconds.
	Buckets []float64
	// TypeLabels labels resolve metrics with the resolved type. Leave it
	// off for containers that resolve many distinct generic types.
	TypeLabels bool
}

// Metrics is a prometheus.Collector fed by a container's observers.
type Metrics struct {
	typeLabels bool

	resolves       *prometheus.CounterVec
	resolveSeconds *prometheus.HistogramVec
	compileSeconds *prometheus.HistogramVec
	bindings       prometheus.Gauge
	activeScopes   *prometheus.GaugeVec
	disposed       *prometheus.CounterVec
}

func New(cfg Config) *Metrics {
	if cfg.Namespace == "" {
		cfg.Namespace = "stitch"
	}
	if cfg.Buckets == nil {
		cfg.Buckets = []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1}
	}

	resolveLabels := []string{"result"}
	if cfg.TypeLabels {
		resolveLabels = []string{"type", "result"}
	}

	return &Metrics{
		typeLabels: cfg.TypeLabels,
		resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "resolves_total",
			Help:      "Resolve calls by outcome.",
		}, resolveLabels),
		resolveSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Time spent in Resolve.",
			Buckets:   cfg.Buckets,
		}, resolveLabels),
		compileSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "compile_duration_seconds",
			Help:      "Time spent in Compile.",
			Buckets:   cfg.Buckets,
		}, []string{"result"}),
		bindings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "bindings",
			Help:      "Bindings in the last compiled container.",
		}),
		activeScopes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "active_scopes",
			Help:      "Scopes begun and not yet closed.",
		}, []string{"policy"}),
		disposed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "disposed_total",
			Help:      "Scoped instances closed, by outcome of the scope close.",
		}, []string{"policy", "result"}),
	}
}

// Options returns the container options that feed m.
func (m *Metrics) Options() []stitch.Option {
	return []stitch.Option{
		stitch.WithResolveObserver(m.observeResolve),
		stitch.WithCompileObserver(m.observeCompile),
		stitch.WithScopeObserver(m.observeScope),
	}
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.resolves.Describe(ch)
	m.resolveSeconds.Describe(ch)
	m.compileSeconds.Describe(ch)
	m.bindings.Describe(ch)
	m.activeScopes.Describe(ch)
	m.disposed.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.resolves.Collect(ch)
	m.resolveSeconds.Collect(ch)
	m.compileSeconds.Collect(ch)
	m.bindings.Collect(ch)
	m.activeScopes.Collect(ch)
	m.disposed.Collect(ch)
}

func (m *Metrics) observeResolve(t reflect.Type, d time.Duration, err error) {
	labels := []string{result(err)}
	if m.typeLabels {
		labels = []string{ireflect.TypeName(t), result(err)}
	}
	m.resolves.WithLabelValues(labels...).Inc()
	m.resolveSeconds.WithLabelValues(labels...).Observe(d.Seconds())
}

func (m *Metrics) observeCompile(bindings int, d time.Duration, err error) {
	m.compileSeconds.WithLabelValues(result(err)).Observe(d.Seconds())
	if err == nil {
		m.bindings.Set(float64(bindings))
	}
}

func (m *Metrics) observeScope(event stitch.ScopeEvent, _ uuid.UUID, policy stitch.ScopePolicy, disposed int, err error) {
	gauge := m.activeScopes.WithLabelValues(policy.String())
	switch event {
	case stitch.ScopeOpened:
		gauge.Inc()
	case stitch.ScopeClosed:
		gauge.Dec()
		m.disposed.WithLabelValues(policy.String(), result(err)).Add(float64(disposed))
	}
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}
