package distance

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	routedLookups        *prometheus.CounterVec
	routedLookupDuration prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Histogram) {
	lookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routed_lookups_total",
			Help: "Routed distance lookups by outcome",
		},
		[]string{"outcome"},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "routed_lookup_duration_seconds",
			Help:    "Latency of routed distance lookups",
			Buckets: prometheus.DefBuckets,
		},
	)
	return lookups, dur
}

func init() {
	routedLookups, routedLookupDuration = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers ranking metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(routedLookups, routedLookupDuration)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	routedLookups, routedLookupDuration = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
