// Package prometheus exposes application metrics through a private registry.
// Callers register vectors through the MetricsCollector interface; a failed
// registration degrades to a no-op vector instead of panicking.
package prometheus

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

// MetricsCollector registers metric vectors and serves the scrape endpoint.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	Handler() http.Handler
}

// CounterVec is a labelled counter family.
type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

// Counter is one counter child.
type Counter interface {
	Inc()
	Add(delta float64)
}

// GaugeVec is a labelled gauge family.
type GaugeVec interface {
	WithLabelValues(lvs ...string) Gauge
}

// Gauge is one gauge child.
type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
}

// HistogramVec is a labelled histogram family.
type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

// Histogram is one histogram child.
type Histogram interface {
	Observe(value float64)
}

// CollectorConfig holds registry settings.
type CollectorConfig struct {
	Namespace            string
	Subsystem            string
	EnableProcessMetrics bool
	EnableGoMetrics      bool
	ConstLabels          map[string]string
}

type collector struct {
	registry   *prometheus.Registry
	config     CollectorConfig
	registered map[string]prometheus.Collector
	mu         sync.Mutex
	logger     logging.Logger
}

// NewMetricsCollector creates a collector with its own registry.
func NewMetricsCollector(cfg CollectorConfig, log logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, errors.New(errors.ErrCodeValidation, "metrics namespace is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	registry := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{
			Namespace: cfg.Namespace,
		}))
	}
	if cfg.EnableGoMetrics {
		registry.MustRegister(prometheus.NewGoCollector())
	}

	return &collector{
		registry:   registry,
		config:     cfg,
		registered: make(map[string]prometheus.Collector),
		logger:     log,
	}, nil
}

func (c *collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// register is idempotent per metric name so repeated wiring of the same
// vector hands back the original.
func (c *collector) register(name string, newCollector prometheus.Collector) (prometheus.Collector, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fqName := prometheus.BuildFQName(c.config.Namespace, c.config.Subsystem, name)
	if existing, ok := c.registered[fqName]; ok {
		return existing, true
	}
	if err := c.registry.Register(newCollector); err != nil {
		c.logger.Error("metric registration failed",
			logging.String("metric", fqName),
			logging.Err(err))
		return nil, false
	}
	c.registered[fqName] = newCollector
	return newCollector, true
}

func (c *collector) RegisterCounter(name, help string, labels ...string) CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   c.config.Namespace,
		Subsystem:   c.config.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: c.config.ConstLabels,
	}, labels)

	registered, ok := c.register(name, vec)
	if !ok {
		return nopCounterVec{}
	}
	if v, isCounter := registered.(*prometheus.CounterVec); isCounter {
		return promCounterVec{vec: v}
	}
	return nopCounterVec{}
}

func (c *collector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   c.config.Namespace,
		Subsystem:   c.config.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: c.config.ConstLabels,
	}, labels)

	registered, ok := c.register(name, vec)
	if !ok {
		return nopGaugeVec{}
	}
	if v, isGauge := registered.(*prometheus.GaugeVec); isGauge {
		return promGaugeVec{vec: v}
	}
	return nopGaugeVec{}
}

func (c *collector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   c.config.Namespace,
		Subsystem:   c.config.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: c.config.ConstLabels,
		Buckets:     buckets,
	}, labels)

	registered, ok := c.register(name, vec)
	if !ok {
		return nopHistogramVec{}
	}
	if v, isHistogram := registered.(*prometheus.HistogramVec); isHistogram {
		return promHistogramVec{vec: v}
	}
	return nopHistogramVec{}
}

type promCounterVec struct{ vec *prometheus.CounterVec }

func (v promCounterVec) WithLabelValues(lvs ...string) Counter {
	return v.vec.WithLabelValues(lvs...)
}

type promGaugeVec struct{ vec *prometheus.GaugeVec }

func (v promGaugeVec) WithLabelValues(lvs ...string) Gauge {
	return v.vec.WithLabelValues(lvs...)
}

type promHistogramVec struct{ vec *prometheus.HistogramVec }

func (v promHistogramVec) WithLabelValues(lvs ...string) Histogram {
	return v.vec.WithLabelValues(lvs...)
}

// NewNopCollector returns a collector whose vectors discard everything.
// Components take it when metrics are not wired.
func NewNopCollector() MetricsCollector {
	return nopCollector{}
}

type nopCollector struct{}

func (nopCollector) RegisterCounter(string, string, ...string) CounterVec { return nopCounterVec{} }
func (nopCollector) RegisterGauge(string, string, ...string) GaugeVec    { return nopGaugeVec{} }
func (nopCollector) RegisterHistogram(string, string, []float64, ...string) HistogramVec {
	return nopHistogramVec{}
}
func (nopCollector) Handler() http.Handler { return http.NotFoundHandler() }

type nopCounterVec struct{}

func (nopCounterVec) WithLabelValues(...string) Counter { return nopCounter{} }

type nopCounter struct{}

func (nopCounter) Inc()        {}
func (nopCounter) Add(float64) {}

type nopGaugeVec struct{}

func (nopGaugeVec) WithLabelValues(...string) Gauge { return nopGauge{} }

type nopGauge struct{}

func (nopGauge) Set(float64) {}
func (nopGauge) Inc()        {}
func (nopGauge) Dec()        {}

type nopHistogramVec struct{}

func (nopHistogramVec) WithLabelValues(...string) Histogram { return nopHistogram{} }

type nopHistogram struct{}

func (nopHistogram) Observe(float64) {}

// Timer observes the elapsed time since construction into a histogram child.
type Timer struct {
	histogram Histogram
	start     time.Time
}

// NewTimer starts a timer against the given histogram child.
func NewTimer(histogram Histogram) *Timer {
	return &Timer{histogram: histogram, start: time.Now()}
}

// ObserveDuration records the elapsed seconds.
func (t *Timer) ObserveDuration() {
	if t.histogram == nil {
		return
	}
	t.histogram.Observe(time.Since(t.start).Seconds())
}
