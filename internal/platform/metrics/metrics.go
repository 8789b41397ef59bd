package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for the scheduling and stay engines. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Successful mutations by engine and operation
	Operations *prometheus.CounterVec

	// Rejected bookings and admissions by conflict kind
	Conflicts *prometheus.CounterVec

	// Stays without an exit
	OpenStays prometheus.Gauge

	// Engine operation latency, persistence included
	OperationLatency *prometheus.HistogramVec
}

// New creates a Metrics instance backed by its own registry, so several
// instances can coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_operations_total",
			Help: "Total successful engine operations by engine and operation",
		}, []string{"engine", "operation"}), // engine: "scheduling", "admission"

		Conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_conflicts_total",
			Help: "Total bookings and admissions rejected by a conflict rule",
		}, []string{"kind"}),

		OpenStays: factory.NewGauge(prometheus.GaugeOpts{
			Name: "clinic_open_stays",
			Help: "Number of inpatient stays that have not been discharged",
		}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinic_operation_duration_seconds",
			Help:    "Duration of engine operations including the persistence rewrite",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"engine", "operation"}),
	}
}

// IncrementOperation records a successful engine operation.
func (m *Metrics) IncrementOperation(engine, operation string) {
	if m != nil {
		m.Operations.WithLabelValues(engine, operation).Inc()
	}
}

// IncrementConflict records a rejected booking or admission.
func (m *Metrics) IncrementConflict(kind string) {
	if m != nil {
		m.Conflicts.WithLabelValues(kind).Inc()
	}
}

// SetOpenStays records the current number of open stays.
func (m *Metrics) SetOpenStays(n int) {
	if m != nil {
		m.OpenStays.Set(float64(n))
	}
}

// ObserveLatency records how long an engine operation took.
func (m *Metrics) ObserveLatency(engine, operation string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(engine, operation).Observe(d.Seconds())
	}
}

// Registry exposes the underlying registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
