package assembler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	rankingOperations  *prometheus.CounterVec
	suggestionsDropped *prometheus.CounterVec
	rankingFailures    *prometheus.CounterVec
	rankingLatency     prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec, prometheus.Histogram) {
	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_operations_total",
			Help: "Ranking operations by terminal state",
		},
		[]string{"state"},
	)
	dropped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestions_dropped_total",
			Help: "Suggestions rejected by validation, by rule",
		},
		[]string{"rule"},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_failures_total",
			Help: "Failed ranking operations by reason",
		},
		[]string{"reason"},
	)
	lat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ranking_duration_seconds",
			Help:    "End to end latency of ranking operations",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
	)
	return ops, dropped, failures, lat
}

func init() {
	rankingOperations, suggestionsDropped, rankingFailures, rankingLatency = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers assembler metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(rankingOperations, suggestionsDropped, rankingFailures, rankingLatency)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	rankingOperations, suggestionsDropped, rankingFailures, rankingLatency = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
