package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nipafx/LibFX-sub001/pkg/nesting"
)

// Pass outcomes used as the "outcome" label.
const (
	OutcomePresent = "present"
	OutcomeAbsent  = "absent"
	OutcomeStopped = "stopped"
	OutcomePanic   = "panic"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "libfx").
	Namespace string

	// Subsystem is the metrics subsystem (default: "nesting").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the pass duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "libfx",
		Subsystem: "nesting",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a nesting.Observer that records passes as Prometheus metrics.
type Metrics struct {
	passes       *prometheus.CounterVec
	steps        *prometheus.CounterVec
	resubscribes *prometheus.CounterVec
	passDepth    *prometheus.HistogramVec
	passDuration *prometheus.HistogramVec
	activePasses *prometheus.GaugeVec
}

// Prometheus creates an observer that registers its metrics with the
// configured registry.
//
// Metrics collected (with the default namespace and subsystem):
//   - libfx_nesting_passes_total: passes by nesting and outcome
//   - libfx_nesting_step_applications_total: step applications by nesting and level
//   - libfx_nesting_resubscriptions_total: level resubscriptions by nesting and level
//   - libfx_nesting_pass_depth: levels walked per pass
//   - libfx_nesting_pass_duration_seconds: wall time per pass
//   - libfx_nesting_active_passes: passes in progress, including reentrant ones
//
// Registering twice with the same registry panics, as with promauto.
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if len(config.Buckets) == 0 {
		config.Buckets = prometheus.DefBuckets
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of propagation passes by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"nesting", "outcome"}),

		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "step_applications_total",
			Help:        "Total number of nesting step applications by level",
			ConstLabels: config.ConstLabels,
		}, []string{"nesting", "level"}),

		resubscribes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resubscriptions_total",
			Help:        "Total number of level resubscriptions by level",
			ConstLabels: config.ConstLabels,
		}, []string{"nesting", "level"}),

		passDepth: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_depth",
			Help:        "Number of levels walked per propagation pass",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.LinearBuckets(0, 1, 9),
		}, []string{"nesting"}),

		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Propagation pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"nesting"}),

		activePasses: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_passes",
			Help:        "Number of propagation passes in progress",
			ConstLabels: config.ConstLabels,
		}, []string{"nesting"}),
	}
}

// BeginPass implements nesting.Observer.
func (m *Metrics) BeginPass(info nesting.PassInfo) nesting.PassObserver {
	m.activePasses.WithLabelValues(info.Nesting).Inc()
	return &metricsPass{
		m:     m,
		info:  info,
		start: time.Now(),
	}
}

type metricsPass struct {
	m     *Metrics
	info  nesting.PassInfo
	start time.Time
}

func (p *metricsPass) StepApplied(level int) {
	p.m.steps.WithLabelValues(p.info.Nesting, strconv.Itoa(level)).Inc()
}

func (p *metricsPass) Resubscribed(level int) {
	p.m.resubscribes.WithLabelValues(p.info.Nesting, strconv.Itoa(level)).Inc()
}

func (p *metricsPass) End(result nesting.PassResult) {
	name := p.info.Nesting
	p.m.activePasses.WithLabelValues(name).Dec()
	p.m.passDuration.WithLabelValues(name).Observe(time.Since(p.start).Seconds())
	p.m.passDepth.WithLabelValues(name).Observe(float64(result.StopLevel - p.info.StartLevel))
	p.m.passes.WithLabelValues(name, Outcome(result)).Inc()
}

// Outcome classifies a finished pass.
func Outcome(result nesting.PassResult) string {
	switch {
	case result.Panic != nil:
		return OutcomePanic
	case !result.Published:
		return OutcomeStopped
	case result.Present:
		return OutcomePresent
	default:
		return OutcomeAbsent
	}
}
