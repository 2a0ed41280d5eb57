package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded for product operations.
const (
	OutcomeSuccess    = "success"
	OutcomeBadRequest = "bad_request"
	OutcomeNotFound   = "not_found"
	OutcomeError      = "error"
)

// Metrics exposes Prometheus instruments for the catalog.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	events     *prometheus.CounterVec
}

// New creates the catalog instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "product_operations_total",
		Help: "Counts product operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "product_operation_duration_seconds",
		Help:    "Product operation latency including the store call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "product_events_published_total",
		Help: "Counts product change events by type and status.",
	}, []string{"type", "status"})

	reg.MustRegister(operations, duration, events)

	return &Metrics{
		operations: operations,
		duration:   duration,
		events:     events,
	}
}

// RecordOperation observes one product operation.
func (m *Metrics) RecordOperation(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(sanitizeLabel(operation), sanitizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(sanitizeLabel(operation)).Observe(elapsed.Seconds())
}

// RecordEvent counts a publish attempt for a product change event.
func (m *Metrics) RecordEvent(eventType string, published bool) {
	if m == nil {
		return
	}
	status := "published"
	if !published {
		status = "failed"
	}
	m.events.WithLabelValues(sanitizeLabel(eventType), status).Inc()
}

func sanitizeLabel(val string) string {
	if val == "" {
		return "unknown"
	}
	return val
}
