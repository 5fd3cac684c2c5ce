package query

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label values for fetch results.
const (
	LabelResult = "result"

	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics provides Prometheus metrics for the query engine. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	fetchTotal          *prometheus.CounterVec
	fetchDuration       prometheus.Histogram
	canceledTotal       prometheus.Counter
	staleDiscardedTotal prometheus.Counter
	invalidatedTotal    prometheus.Counter
}

// NewMetrics creates and registers engine metrics.
// If registry is nil, metrics will be created but not registered.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vista",
				Subsystem: "query",
				Name:      "fetch_total",
				Help:      "Total number of fetch calls by result",
			},
			[]string{LabelResult},
		),

		fetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "vista",
				Subsystem: "query",
				Name:      "fetch_duration_seconds",
				Help:      "Latency of fetch calls",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),

		canceledTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vista",
				Subsystem: "query",
				Name:      "canceled_requests_total",
				Help:      "Queued requests cancelled by a newer generation",
			},
		),

		staleDiscardedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vista",
				Subsystem: "pagination",
				Name:      "stale_discarded_total",
				Help:      "Resolved pagination queries dropped because a newer one was issued",
			},
		),

		invalidatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "vista",
				Subsystem: "query",
				Name:      "segments_invalidated_total",
				Help:      "Loaded segments reset to not loaded by a remove",
			},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.fetchTotal,
			m.fetchDuration,
			m.canceledTotal,
			m.staleDiscardedTotal,
			m.invalidatedTotal,
		)
	}

	return m
}

// ObserveFetch records one fetch call
func (m *Metrics) ObserveFetch(err error, d time.Duration) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.fetchTotal.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// ObserveCanceled records n requests cancelled by supersession
func (m *Metrics) ObserveCanceled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.canceledTotal.Add(float64(n))
}

// ObserveStaleDiscarded records a pagination result dropped as out of date
func (m *Metrics) ObserveStaleDiscarded() {
	if m == nil {
		return
	}
	m.staleDiscardedTotal.Inc()
}

// ObserveInvalidated records n segments invalidated by a remove
func (m *Metrics) ObserveInvalidated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.invalidatedTotal.Add(float64(n))
}
