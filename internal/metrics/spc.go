// Package metrics provides Prometheus metrics for control-limit computation
// and elimination sessions
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SPCMetrics contains Prometheus metrics for SPC sessions. A nil
// *SPCMetrics is valid and records nothing.
type SPCMetrics struct {
	registry *prometheus.Registry

	computationsTotal   *prometheus.CounterVec
	computationDuration *prometheus.HistogramVec
	outliersTotal       *prometheus.CounterVec

	eliminationsTotal    *prometheus.CounterVec
	eliminatedCellsTotal *prometheus.CounterVec

	resetsTotal    *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// NewSPCMetrics creates and registers new SPC metrics
func NewSPCMetrics(registry *prometheus.Registry) (*SPCMetrics, error) {
	m := &SPCMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SPCMetrics) initMetrics() {
	m.computationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spc_computations_total",
			Help: "Total number of control-limit computations",
		},
		[]string{"method", "status"}, // status: success, or the error code
	)

	m.computationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spc_computation_duration_seconds",
			Help:    "Time taken to compute the limits of every requested column",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
		[]string{"method"},
	)

	m.outliersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spc_outliers_total",
			Help: "Total number of out-of-control points reported",
		},
		[]string{"method"},
	)

	m.eliminationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spc_eliminations_total",
			Help: "Total number of elimination rounds",
		},
		[]string{"method", "status"},
	)

	m.eliminatedCellsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spc_eliminated_cells_total",
			Help: "Total number of measurement cells nulled by elimination",
		},
		[]string{"method"},
	)

	m.resetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spc_session_resets_total",
			Help: "Total number of session resets",
		},
		[]string{"status"},
	)

	m.activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spc_active_sessions",
			Help: "Number of open elimination sessions",
		},
	)
}

// Describe implements the Collector interface
func (m *SPCMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.computationsTotal.Describe(ch)
	m.computationDuration.Describe(ch)
	m.outliersTotal.Describe(ch)
	m.eliminationsTotal.Describe(ch)
	m.eliminatedCellsTotal.Describe(ch)
	m.resetsTotal.Describe(ch)
	m.activeSessions.Describe(ch)
}

// Collect implements the Collector interface
func (m *SPCMetrics) Collect(ch chan<- prometheus.Metric) {
	m.computationsTotal.Collect(ch)
	m.computationDuration.Collect(ch)
	m.outliersTotal.Collect(ch)
	m.eliminationsTotal.Collect(ch)
	m.eliminatedCellsTotal.Collect(ch)
	m.resetsTotal.Collect(ch)
	m.activeSessions.Collect(ch)
}

// RecordComputation records one compute call over one or more columns
func (m *SPCMetrics) RecordComputation(method, status string, seconds float64, outliers int) {
	if m == nil {
		return
	}
	m.computationsTotal.WithLabelValues(method, status).Inc()
	m.computationDuration.WithLabelValues(method).Observe(seconds)
	if outliers > 0 {
		m.outliersTotal.WithLabelValues(method).Add(float64(outliers))
	}
}

// RecordElimination records one elimination round and the cells it nulled
func (m *SPCMetrics) RecordElimination(method, status string, cells int) {
	if m == nil {
		return
	}
	m.eliminationsTotal.WithLabelValues(method, status).Inc()
	if cells > 0 {
		m.eliminatedCellsTotal.WithLabelValues(method).Add(float64(cells))
	}
}

// RecordReset records a session reset
func (m *SPCMetrics) RecordReset(status string) {
	if m == nil {
		return
	}
	m.resetsTotal.WithLabelValues(status).Inc()
}

// SessionOpened increments the active session gauge
func (m *SPCMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// SessionClosed decrements the active session gauge
func (m *SPCMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
