package events

import "time"

// StateEvent is published on every ranking state transition. Reason is set
// when To is "failed".
type StateEvent struct {
	RequestID string
	From      string
	To        string
	Reason    string
	Time      time.Time
}

// SuggestionDroppedEvent is published when validation rejects a suggestion.
// Rule names the validation rule, e.g. "non_canonical_start" or
// "outside_window".
type SuggestionDroppedEvent struct {
	RequestID    string
	TechnicianID string
	Rule         string
	Detail       string
}
