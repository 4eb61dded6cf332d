// Package metrics exposes Prometheus collectors for the catalog, sessions
// and HTTP traffic.
//
// Collectors live on a private registry so tests and multiple servers in one
// process never collide on the global default registry. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cpucompare"

// Metrics holds every collector the application reports.
type Metrics struct {
	registry *prometheus.Registry

	catalogLoads    *prometheus.CounterVec
	catalogRecords  prometheus.Gauge
	catalogLoadedAt prometheus.Gauge
	catalogDuration prometheus.Histogram

	sessions   prometheus.Gauge
	selections *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	rateLimited  prometheus.Counter
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		catalogLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_loads_total",
			Help:      "Catalog load attempts by result.",
		}, []string{"result"}),
		catalogRecords: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_records",
			Help:      "Number of CPUs in the current catalog.",
		}),
		catalogLoadedAt: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_loaded_timestamp_seconds",
			Help:      "Unix time of the last successful catalog load.",
		}),
		catalogDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_load_duration_seconds",
			Help:      "Time spent fetching and parsing the catalog.",
			Buckets:   prometheus.DefBuckets,
		}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Browser sessions currently held in memory.",
		}),
		selections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_adds_total",
			Help:      "Requests to add a CPU to a comparison, by outcome.",
		}, []string{"status"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"route"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the per-IP rate limiter.",
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveCatalogLoad records one load attempt. records and loadedAt are
// only used when err is nil.
func (m *Metrics) ObserveCatalogLoad(records int, d time.Duration, loadedAt time.Time, err error) {
	if m == nil {
		return
	}
	m.catalogDuration.Observe(d.Seconds())
	if err != nil {
		m.catalogLoads.WithLabelValues("error").Inc()
		return
	}
	m.catalogLoads.WithLabelValues("ok").Inc()
	m.catalogRecords.Set(float64(records))
	m.catalogLoadedAt.Set(float64(loadedAt.Unix()))
}

// SetSessions reports the number of live sessions.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}

// ObserveSelection counts an add request by its outcome, e.g. "added".
func (m *Metrics) ObserveSelection(status string) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(status).Inc()
}

// ObserveRequest records a served HTTP request. route is the chi route
// pattern, never the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RateLimited counts a rejected request.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
