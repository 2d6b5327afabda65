package metrics

import coremetrics "github.com/kwikdrytn/kwikdry-sub000/core/metrics"

// MultiSink fans out ranking events to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRanking forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRanking(ev coremetrics.RankingEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRanking(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordDrop forwards drop events to sinks supporting them.
func (m *MultiSink) RecordDrop(ev coremetrics.DropEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.DropRecorder); ok {
			if err := rec.RecordDrop(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTransition forwards transitions to sinks supporting them.
func (m *MultiSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.TransitionRecorder); ok {
			if err := rec.RecordTransition(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
