package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "alert_registry"

// Metrics holds the Prometheus collectors for the alert registry.
type Metrics struct {
	AlertsCreated      prometheus.Counter
	AlertsDeleted      prometheus.Counter
	ValidationFailures prometheus.Counter
	StorageFailures    prometheus.Counter

	// Event fan-out metrics.
	EventsDropped   prometheus.Counter
	EventsDelivered *prometheus.CounterVec // labels: sink, outcome={success,error}

	HTTPRequestDuration *prometheus.HistogramVec // labels: method, route, status
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AlertsCreated,
		m.AlertsDeleted,
		m.ValidationFailures,
		m.StorageFailures,
		m.EventsDropped,
		m.EventsDelivered,
		m.HTTPRequestDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as many
// as they need without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AlertsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_created_total",
			Help:      "Total alerts persisted.",
		}),
		AlertsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_deleted_total",
			Help:      "Total alerts removed.",
		}),
		ValidationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Total requests rejected by input validation.",
		}),
		StorageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_failures_total",
			Help:      "Total operations that failed at the persistence layer.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Alert events discarded because the dispatch queue was full.",
		}),
		EventsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_delivered_total",
			Help:      "Alert event deliveries by sink and outcome.",
		}, []string{"sink", "outcome"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route and status.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}
