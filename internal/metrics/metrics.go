// Package metrics holds the prometheus collectors for derivation passes,
// targeting, page generation, plugin actions and the preview server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry and its collectors. A nil *Metrics records
// nothing, so callers need not check.
type Metrics struct {
	registry *prometheus.Registry

	derivationDuration *prometheus.HistogramVec
	targetingWarnings  *prometheus.CounterVec
	targetingCollapsed prometheus.Counter
	pagesGenerated     prometheus.Counter
	actions            *prometheus.CounterVec

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		derivationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "au2_derivation_duration_seconds",
			Help:    "Time spent folding the event log into derived state.",
			Buckets: prometheus.DefBuckets,
		}, []string{"component"}),
		targetingWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "au2_targeting_warnings_total",
			Help: "Targeting warnings by kind.",
		}, []string{"kind"}),
		targetingCollapsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "au2_targeting_collapsed_total",
			Help: "Targeting computations that ended in open season.",
		}),
		pagesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "au2_pages_generated_total",
			Help: "Public pages written.",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "au2_actions_total",
			Help: "Plugin actions run, by export and outcome.",
		}, []string{"export", "outcome"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "au2_http_in_flight_requests",
			Help: "In-flight preview requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "au2_http_requests_total",
			Help: "Preview requests.",
		}, []string{"method", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "au2_http_request_duration_seconds",
			Help:    "Preview request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
	m.registry.MustRegister(
		m.derivationDuration, m.targetingWarnings, m.targetingCollapsed,
		m.pagesGenerated, m.actions,
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
	)
	return m
}

// Registry exposes the registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDerivation records how long component took.
func (m *Metrics) ObserveDerivation(component string, d time.Duration) {
	if m == nil {
		return
	}
	m.derivationDuration.WithLabelValues(component).Observe(d.Seconds())
}

// TargetingWarning counts a targeting warning of kind.
func (m *Metrics) TargetingWarning(kind string) {
	if m == nil {
		return
	}
	m.targetingWarnings.WithLabelValues(kind).Inc()
}

// TargetingCollapsed counts an open season.
func (m *Metrics) TargetingCollapsed() {
	if m == nil {
		return
	}
	m.targetingCollapsed.Inc()
}

// PagesGenerated counts written pages.
func (m *Metrics) PagesGenerated(n int) {
	if m == nil {
		return
	}
	m.pagesGenerated.Add(float64(n))
}

// Action counts a plugin action and whether it failed.
func (m *Metrics) Action(export string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.actions.WithLabelValues(export, outcome).Inc()
}

// Instrument measures requests to next.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.code)
		m.httpRequestDuration.WithLabelValues(r.Method, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(r.Method, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
