package http

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	importsTotal    prometheus.Counter
	importedRecords prometheus.Counter
	recomputesTotal prometheus.Counter
}

// NewMetrics registers the API collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gradebook",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gradebook",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		importsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gradebook",
			Name:      "roster_imports_total",
			Help:      "Total roster import operations.",
		}),

		importedRecords: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gradebook",
			Name:      "roster_imported_records_total",
			Help:      "Total student records written by roster imports.",
		}),

		recomputesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gradebook",
			Name:      "grade_recomputes_total",
			Help:      "Total grade recompute operations.",
		}),
	}
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveImport records one roster import.
func (m *Metrics) ObserveImport(records int) {
	if m == nil {
		return
	}
	m.importsTotal.Inc()
	m.importedRecords.Add(float64(records))
}

// ObserveRecompute records one grade recompute.
func (m *Metrics) ObserveRecompute() {
	if m == nil {
		return
	}
	m.recomputesTotal.Inc()
}
