// ABOUTME: Prometheus collectors for HTTP traffic and domain events
// ABOUTME: Registered on a private registry served by Handler

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// RequestLatency tracks HTTP request latency by endpoint and method
	RequestLatency *prometheus.HistogramVec
	// HTTPRequestsTotal total HTTP requests
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestsInFlight current HTTP requests being processed
	HTTPRequestsInFlight prometheus.Gauge
	// TokenOperations counts OAuth code exchanges and refreshes by result
	TokenOperations *prometheus.CounterVec
	// CalendarSyncs counts calendar sync runs by result
	CalendarSyncs *prometheus.CounterVec
	// CalendarSyncedEvents is the event count of the last successful sync
	CalendarSyncedEvents prometheus.Gauge
	// ProspectsCreated counts prospects by source (api, webhook, mcp)
	ProspectsCreated *prometheus.CounterVec
	registry         *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_latency_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"endpoint", "method", "status"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"endpoint", "method", "status"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		TokenOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "oauth_token_operations_total",
				Help:      "Total number of OAuth token exchanges and refreshes",
			},
			[]string{"operation", "result"},
		),
		CalendarSyncs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calendar_syncs_total",
				Help:      "Total number of calendar sync runs",
			},
			[]string{"result"},
		),
		CalendarSyncedEvents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "calendar_synced_events",
				Help:      "Number of events stored by the last successful calendar sync",
			},
		),
		ProspectsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prospects_created_total",
				Help:      "Total number of prospects created",
			},
			[]string{"source"},
		),
	}

	registry.MustRegister(
		m.RequestLatency,
		m.HTTPRequestsTotal,
		m.HTTPRequestsInFlight,
		m.TokenOperations,
		m.CalendarSyncs,
		m.CalendarSyncedEvents,
		m.ProspectsCreated,
	)

	return m
}

// Handler returns the Prometheus scrape handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordRequestLatency(endpoint, method, status string, durationSeconds float64) {
	m.RequestLatency.WithLabelValues(endpoint, method, status).Observe(durationSeconds)
}

func (m *Metrics) RecordHTTPRequest(endpoint, method, status string) {
	m.HTTPRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordTokenOperation counts an OAuth exchange or refresh ("exchange"/"refresh", "success"/"error").
func (m *Metrics) RecordTokenOperation(operation, result string) {
	m.TokenOperations.WithLabelValues(operation, result).Inc()
}

// RecordCalendarSync counts a sync run; events is only recorded on success.
func (m *Metrics) RecordCalendarSync(result string, events int) {
	m.CalendarSyncs.WithLabelValues(result).Inc()
	if result == "success" {
		m.CalendarSyncedEvents.Set(float64(events))
	}
}

func (m *Metrics) RecordProspectCreated(source string) {
	m.ProspectsCreated.WithLabelValues(source).Inc()
}
