package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kwikdrytn/kwikdry-sub000/core/metrics"
)

// PromSink records ranking outcomes in Prometheus metrics.
type PromSink struct {
	rankings    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	candidates  prometheus.Histogram
	drops       *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

// NewPromSink registers the sink collectors on the default registerer.
// The HTTP endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rankings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rankings_total",
		Help: "Ranking operations by terminal state and duration source",
	}, []string{"state", "duration_source"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ranking_latency_seconds",
		Help:    "Ranking latency by terminal state",
		Buckets: prometheus.DefBuckets,
	}, []string{"state"})
	candidates := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ranking_shortlist_size",
		Help:    "Number of technicians handed to the reasoning service",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 10},
	})
	drops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ranking_suggestion_drops_total",
		Help: "Suggestions rejected by validation",
	}, []string{"rule"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ranking_state_transitions_total",
		Help: "Ranking state transitions",
	}, []string{"from", "to"})

	var err error
	if rankings, err = register(reg, rankings); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}
	if candidates, err = register(reg, candidates); err != nil {
		return nil, err
	}
	if drops, err = register(reg, drops); err != nil {
		return nil, err
	}
	if transitions, err = register(reg, transitions); err != nil {
		return nil, err
	}
	return &PromSink{
		rankings:    rankings,
		latency:     latency,
		candidates:  candidates,
		drops:       drops,
		transitions: transitions,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRanking counts the operation and observes its latency.
func (s *PromSink) RecordRanking(ev coremetrics.RankingEvent) error {
	source := ev.DurationSource
	if source == "" {
		source = "none"
	}
	s.rankings.WithLabelValues(ev.State, source).Inc()
	s.latency.WithLabelValues(ev.State).Observe(ev.Latency.Seconds())
	s.candidates.Observe(float64(ev.Candidates))
	return nil
}

// RecordDrop counts a rejected suggestion.
func (s *PromSink) RecordDrop(ev coremetrics.DropEvent) error {
	s.drops.WithLabelValues(ev.Rule).Inc()
	return nil
}

// RecordTransition counts a state transition.
func (s *PromSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	from := ev.From
	if from == "" {
		from = "none"
	}
	s.transitions.WithLabelValues(from, ev.To).Inc()
	return nil
}
