// Package prom records generation and cache events as Prometheus metrics and
// writes them in the node_exporter text-file format.
//
// The metrics live in a private registry, so several runs in one process do
// not collide with the default registry.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/netdiagram/pkg/observability"
)

const namespace = "netdiagram"

// Metrics implements [observability.GenerationHooks] and
// [observability.CacheHooks].
type Metrics struct {
	registry *prometheus.Registry

	loadSeconds     prometheus.Histogram
	services        prometheus.Gauge
	diagrams        *prometheus.CounterVec
	diagramSeconds  *prometheus.HistogramVec
	arrows          prometheus.Counter
	disabledLinks   prometheus.Counter
	bytesWritten    prometheus.Counter
	cacheOperations *prometheus.CounterVec
	lastRun         prometheus.Gauge
}

// New registers every metric on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time spent reading the graph and style resources.",
			Buckets:   prometheus.DefBuckets,
		}),
		services: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "services",
			Help:      "Services in the loaded graph.",
		}),
		diagrams: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagrams_total",
			Help:      "Generated diagrams by kind and result.",
		}, []string{"kind", "result"}),
		diagramSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diagram_duration_seconds",
			Help:      "Time spent per diagram.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		arrows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arrows_total",
			Help:      "Arrows emitted across all diagrams.",
		}),
		disabledLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disabled_links_total",
			Help:      "Links disabled because their target was not drawn.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_bytes_total",
			Help:      "Bytes of diagram XML produced.",
		}),
		cacheOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes by key type and outcome.",
		}, []string{"key_type", "op"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed diagram.",
		}),
	}
	m.registry.MustRegister(
		m.loadSeconds, m.services, m.diagrams, m.diagramSeconds,
		m.arrows, m.disabledLinks, m.bytesWritten, m.cacheOperations, m.lastRun,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func kind(service string) string {
	if service == "" {
		return "system"
	}
	return "service"
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnLoad implements [observability.GenerationHooks].
func (m *Metrics) OnLoad(_ context.Context, services int, d time.Duration, err error) {
	m.loadSeconds.Observe(d.Seconds())
	if err == nil {
		m.services.Set(float64(services))
	}
}

// OnDiagramStart implements [observability.GenerationHooks].
func (m *Metrics) OnDiagramStart(context.Context, string) {}

// OnDiagramComplete implements [observability.GenerationHooks].
func (m *Metrics) OnDiagramComplete(_ context.Context, service string, r observability.DiagramResult, d time.Duration, err error) {
	k := kind(service)
	m.diagrams.WithLabelValues(k, result(err)).Inc()
	m.diagramSeconds.WithLabelValues(k).Observe(d.Seconds())
	if err != nil {
		return
	}
	m.arrows.Add(float64(r.Arrows))
	m.disabledLinks.Add(float64(r.DisabledLinks))
	m.bytesWritten.Add(float64(r.Bytes))
	m.lastRun.SetToCurrentTime()
}

// OnCacheHit implements [observability.CacheHooks].
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOperations.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements [observability.CacheHooks].
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOperations.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements [observability.CacheHooks].
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.cacheOperations.WithLabelValues(keyType, "set").Inc()
}

var (
	_ observability.GenerationHooks = (*Metrics)(nil)
	_ observability.CacheHooks      = (*Metrics)(nil)
)
