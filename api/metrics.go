package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the server's prometheus collectors on a private registry so
// tests can stand up servers side by side without collision.
type Metrics struct {
	registry *prometheus.Registry

	GateEvaluations   *prometheus.CounterVec
	GateCheckFailures *prometheus.CounterVec
	TradesJournaled   *prometheus.CounterVec
	PositionChanges   *prometheus.CounterVec
	BreakerTrips      prometheus.Counter
	RequestDuration   *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		GateEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paperledger_gate_evaluations_total",
			Help: "Risk gate evaluations by verdict.",
		}, []string{"result"}),
		GateCheckFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paperledger_gate_check_failures_total",
			Help: "Individual gate check failures by check name.",
		}, []string{"check"}),
		TradesJournaled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paperledger_trades_journaled_total",
			Help: "Trades appended to the journal by side.",
		}, []string{"side"}),
		PositionChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paperledger_position_transitions_total",
			Help: "Position lifecycle transitions by action.",
		}, []string{"action"}),
		BreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paperledger_circuit_breaker_trips_total",
			Help: "Daily-loss circuit breaker trips.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paperledger_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.GateEvaluations,
		m.GateCheckFailures,
		m.TradesJournaled,
		m.PositionChanges,
		m.BreakerTrips,
		m.RequestDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
