package metrics

import "time"

// RankingEvent summarises one ranking operation.
type RankingEvent struct {
	RequestID       string
	State           string
	FailureReason   string
	Zone            string
	Candidates      int
	Suggestions     int
	Dropped         int
	DurationMinutes int
	// DurationSource is "request", "history" or "default".
	DurationSource string
	Latency        time.Duration
	Time           time.Time
}

// MetricsSink records ranking outcomes for observability purposes.
type MetricsSink interface {
	RecordRanking(ev RankingEvent) error
}

// DropEvent records a suggestion rejected by validation.
type DropEvent struct {
	RequestID    string
	TechnicianID string
	Rule         string
	Time         time.Time
}

// DropRecorder is implemented by sinks able to record validation drops.
type DropRecorder interface {
	RecordDrop(ev DropEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRanking(RankingEvent) error { return nil }
func (NopSink) RecordDrop(DropEvent) error       { return nil }

// TransitionEvent records a ranking state transition.
type TransitionEvent struct {
	From string
	To   string
	Time time.Time
}

// TransitionRecorder is implemented by sinks able to record transitions.
type TransitionRecorder interface {
	RecordTransition(ev TransitionEvent) error
}
