package assembler

// State is the lifecycle position of a ranking operation.
type State string

const (
	StateBuilding                State = "building"
	StateAwaitingExternalRanking State = "awaiting_external_ranking"
	StateValidated               State = "validated"
	StateFailed                  State = "failed"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateValidated || s == StateFailed
}

// FailureReason explains a failed ranking operation.
type FailureReason string

const (
	ReasonRateLimited         FailureReason = "rate_limited"
	ReasonQuotaExhausted      FailureReason = "quota_exhausted"
	ReasonUnparseableResponse FailureReason = "unparseable_response"
	ReasonUpstreamError       FailureReason = "upstream_error"
)

// Drop rules counted when validation rejects a suggestion.
const (
	RuleNonCanonicalStart = "non_canonical_start"
	RuleHardExcluded      = "hard_excluded"
	RuleUnknownTechnician = "unknown_technician"
	RuleInvalidDate       = "invalid_date"
	RuleOutsideWindow     = "outside_window"
	RuleSlotPastMidnight  = "slot_past_midnight"
	RuleOverlap           = "overlap"
)
