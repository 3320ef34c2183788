package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus instruments.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	ActiveConnections prometheus.Gauge
	ErrorsTotal       *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of in-flight HTTP requests.",
		}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type.",
		}, []string{"type"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.RequestDuration,
		m.ActiveConnections,
		m.ErrorsTotal,
	)
	return m
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional registrations.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if status >= 500 {
		m.ErrorsTotal.WithLabelValues("http_5xx").Inc()
	}
}

// CountError increments the typed error counter.
func (m *Metrics) CountError(errType string) {
	m.ErrorsTotal.WithLabelValues(errType).Inc()
}

// RegisterCacheStats exposes cache counters as Prometheus metrics. The stats
// function is called at scrape time.
func (m *Metrics) RegisterCacheStats(name string, stats func() (hits, misses, evictions uint64)) {
	labels := prometheus.Labels{"cache": name}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "cache_hits_total", Help: "Total cache hits.", ConstLabels: labels,
		}, func() float64 { h, _, _ := stats(); return float64(h) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "cache_misses_total", Help: "Total cache misses.", ConstLabels: labels,
		}, func() float64 { _, mi, _ := stats(); return float64(mi) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "cache_evictions_total", Help: "Total cache evictions.", ConstLabels: labels,
		}, func() float64 { _, _, e := stats(); return float64(e) }),
	)
}

// RegisterCacheSize exposes the current entry count of a cache.
func (m *Metrics) RegisterCacheSize(name string, size func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "cache_entries", Help: "Current number of cache entries.",
		ConstLabels: prometheus.Labels{"cache": name},
	}, func() float64 { return float64(size()) }))
}

// RegisterBreakerState exposes a circuit breaker's state as a gauge
// (0=closed, 1=open, 2=half-open).
func (m *Metrics) RegisterBreakerState(name string, state func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "circuit_breaker_state", Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
		ConstLabels: prometheus.Labels{"circuit": name},
	}, func() float64 { return float64(state()) }))
}

// RegisterRateLimiterRejections exposes a rate limiter's rejection count.
func (m *Metrics) RegisterRateLimiterRejections(name string, rejected func() uint64) {
	m.registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "rate_limit_rejections_total", Help: "Total requests rejected by the rate limiter.",
		ConstLabels: prometheus.Labels{"limiter": name},
	}, func() float64 { return float64(rejected()) }))
}
