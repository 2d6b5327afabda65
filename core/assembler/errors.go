package assembler

import (
	"errors"
	"fmt"
)

// Sentinel errors used by Reasoner implementations to classify failures.
var (
	ErrRateLimited    = errors.New("reasoning service rate limited")
	ErrQuotaExhausted = errors.New("reasoning service quota exhausted")
	ErrUpstream       = errors.New("reasoning service unavailable")
)

// ErrInvalidRequest is returned for requests that cannot be ranked.
var ErrInvalidRequest = errors.New("assembler: invalid request")

// Failure is returned when the reasoning service could not produce an
// answer. It is retryable by the caller; nothing is retried internally.
type Failure struct {
	Reason FailureReason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("ranking failed: %s", f.Reason)
	}
	return fmt.Sprintf("ranking failed: %s: %v", f.Reason, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Is matches the sentinel that corresponds to the failure reason.
func (f *Failure) Is(target error) bool {
	switch f.Reason {
	case ReasonRateLimited:
		return target == ErrRateLimited
	case ReasonQuotaExhausted:
		return target == ErrQuotaExhausted
	case ReasonUpstreamError:
		return target == ErrUpstream
	}
	return false
}

// Retryable reports whether the caller may try again later.
func (f *Failure) Retryable() bool { return true }

// UserMessage is a short message safe to show to an end user.
func (f *Failure) UserMessage() string {
	switch f.Reason {
	case ReasonRateLimited:
		return "The suggestion service is busy. Please try again in a minute."
	case ReasonQuotaExhausted:
		return "The suggestion service is temporarily unavailable. Please try again later."
	default:
		return "The suggestion service is temporarily unavailable. Please try again."
	}
}

// classify maps a reasoner error to a failure reason.
func classify(err error) FailureReason {
	switch {
	case errors.Is(err, ErrRateLimited):
		return ReasonRateLimited
	case errors.Is(err, ErrQuotaExhausted):
		return ReasonQuotaExhausted
	default:
		return ReasonUpstreamError
	}
}
