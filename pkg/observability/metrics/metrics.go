// Package metrics exports observability hooks as Prometheus collectors.
//
// A single [Metrics] value implements every hook interface in the parent
// package, so main can register it once per category:
//
//	m := metrics.New(prometheus.DefaultRegisterer)
//	observability.SetResolveHooks(m)
//	observability.SetStoreHooks(m)
//	observability.SetCacheHooks(m)
//	observability.SetHTTPHooks(m)
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/pomgraph/pkg/observability"
)

const namespace = "pomgraph"

// Metrics holds the collectors backing every hook category.
type Metrics struct {
	resolveTotal    *prometheus.CounterVec
	resolveDuration prometheus.Histogram
	resolveNodes    prometheus.Histogram
	fetchTotal      *prometheus.CounterVec
	fetchDuration   prometheus.Histogram
	adoptTotal      prometheus.Counter
	missingVersion  prometheus.Counter

	storeWrites      *prometheus.CounterVec
	storeDuration    prometheus.Histogram
	storeViolations  prometheus.Counter
	storeLazyLoads   *prometheus.CounterVec
	cacheEvents      *prometheus.CounterVec
	cacheBytes       *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpErrors       *prometheus.CounterVec
	registeredGather prometheus.Gatherer
}

var (
	_ observability.ResolveHooks = (*Metrics)(nil)
	_ observability.StoreHooks   = (*Metrics)(nil)
	_ observability.CacheHooks   = (*Metrics)(nil)
	_ observability.HTTPHooks    = (*Metrics)(nil)
)

// New creates the collectors and registers them with reg. When reg is also a
// prometheus.Gatherer (as *prometheus.Registry is), Handler serves from it;
// otherwise Handler serves the default gatherer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolve_total",
				Help:      "Number of resolution runs by outcome.",
			},
			[]string{"outcome"},
		),
		resolveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolve_duration_seconds",
				Help:      "Time taken by a resolution run.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		resolveNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolve_nodes",
				Help:      "Number of nodes returned by a resolution run.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_total",
				Help:      "Number of manifest downloads by outcome.",
			},
			[]string{"outcome"},
		),
		fetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Time taken to download and parse a manifest.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		adoptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "adopt_total",
				Help:      "Number of nodes adopted from the store instead of fetched.",
			},
		),
		missingVersion: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "missing_version_total",
				Help:      "Number of dependencies left without a version.",
			},
		),
		storeWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_writes_total",
				Help:      "Number of store writes by outcome.",
			},
			[]string{"outcome"},
		),
		storeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_write_duration_seconds",
				Help:      "Time taken by a store write.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		storeViolations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_violations_total",
				Help:      "Number of sanity check violations reported on write.",
			},
		),
		storeLazyLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_lazy_loads_total",
				Help:      "Number of proxy relationships loaded from the store.",
			},
			[]string{"relation"},
		),
		cacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_events_total",
				Help:      "Cache hits, misses and writes by backend.",
			},
			[]string{"backend", "event"},
		),
		cacheBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_written_bytes_total",
				Help:      "Bytes written to the cache by backend.",
			},
			[]string{"backend"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_client_requests_total",
				Help:      "Outgoing HTTP requests by host and status code.",
			},
			[]string{"host", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_client_duration_seconds",
				Help:      "Outgoing HTTP request latency by host.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"host"},
		),
		httpErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_client_errors_total",
				Help:      "Outgoing HTTP requests that failed before a response.",
			},
			[]string{"host"},
		),
	}

	reg.MustRegister(
		m.resolveTotal,
		m.resolveDuration,
		m.resolveNodes,
		m.fetchTotal,
		m.fetchDuration,
		m.adoptTotal,
		m.missingVersion,
		m.storeWrites,
		m.storeDuration,
		m.storeViolations,
		m.storeLazyLoads,
		m.cacheEvents,
		m.cacheBytes,
		m.httpRequests,
		m.httpDuration,
		m.httpErrors,
	)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.registeredGather = g
	} else {
		m.registeredGather = prometheus.DefaultGatherer
	}
	return m
}

// Handler serves the registered collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registeredGather, promhttp.HandlerOpts{})
}

// Install registers m for every hook category.
func (m *Metrics) Install() {
	observability.SetResolveHooks(m)
	observability.SetStoreHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnResolveStart(context.Context, string) {}

func (m *Metrics) OnResolveComplete(_ context.Context, _ string, nodes int, d time.Duration, err error) {
	m.resolveTotal.WithLabelValues(outcome(err)).Inc()
	m.resolveDuration.Observe(d.Seconds())
	if err == nil {
		m.resolveNodes.Observe(float64(nodes))
	}
}

func (m *Metrics) OnFetch(_ context.Context, _ string, d time.Duration, err error) {
	m.fetchTotal.WithLabelValues(outcome(err)).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

func (m *Metrics) OnAdopt(context.Context, string) { m.adoptTotal.Inc() }

func (m *Metrics) OnMissingVersion(context.Context, string, string) { m.missingVersion.Inc() }

func (m *Metrics) OnWrite(_ context.Context, d time.Duration, skipped bool, err error) {
	label := outcome(err)
	if skipped && err == nil {
		label = "skipped"
	}
	m.storeWrites.WithLabelValues(label).Inc()
	m.storeDuration.Observe(d.Seconds())
}

func (m *Metrics) OnValidationFailure(_ context.Context, violations int) {
	m.storeViolations.Add(float64(violations))
}

func (m *Metrics) OnLazyLoad(_ context.Context, relation string) {
	m.storeLazyLoads.WithLabelValues(relation).Inc()
}

func (m *Metrics) OnCacheHit(_ context.Context, backend string) {
	m.cacheEvents.WithLabelValues(backend, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, backend string) {
	m.cacheEvents.WithLabelValues(backend, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, backend string, size int) {
	m.cacheEvents.WithLabelValues(backend, "set").Inc()
	m.cacheBytes.WithLabelValues(backend).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(host, statusLabel(code)).Inc()
	m.httpDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.httpErrors.WithLabelValues(host).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "other"
	}
}
