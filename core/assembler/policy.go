package assembler

import (
	"fmt"
	"time"

	"github.com/kwikdrytn/kwikdry-sub000/core/duration"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
	"github.com/kwikdrytn/kwikdry-sub000/core/schedule"
)

// Policy is the organization-wide configuration of a ranking operation.
type Policy struct {
	// StandardStartTimes are the only start times a suggestion may use.
	StandardStartTimes     []model.TimeOfDay
	WindowDays             int
	ShortlistSize          int
	MaxSuggestions         int
	DefaultDurationMinutes int
	// SkillTieBreakMiles is how far past the first technician of a run a
	// technician may live and still be ordered by skill level within it.
	SkillTieBreakMiles float64
	HistoryLimit       int
	ReasoningTimeout   time.Duration

	Schedule schedule.Policy
	Duration duration.Policy
}

// DefaultPolicy returns the standard organization policy.
func DefaultPolicy() Policy {
	return Policy{
		StandardStartTimes: []model.TimeOfDay{
			model.MustTimeOfDay("08:00"),
			model.MustTimeOfDay("11:00"),
			model.MustTimeOfDay("14:00"),
		},
		WindowDays:             14,
		ShortlistSize:          5,
		MaxSuggestions:         5,
		DefaultDurationMinutes: 120,
		SkillTieBreakMiles:     1,
		HistoryLimit:           500,
		ReasoningTimeout:       30 * time.Second,
		Schedule:               schedule.DefaultPolicy(),
		Duration:               duration.DefaultPolicy(),
	}
}

// Validate rejects policies that cannot produce a suggestion.
func (p Policy) Validate() error {
	if len(p.StandardStartTimes) == 0 {
		return fmt.Errorf("assembler: at least one standard start time is required")
	}
	if p.WindowDays <= 0 || p.ShortlistSize <= 0 || p.MaxSuggestions <= 0 {
		return fmt.Errorf("assembler: window_days, shortlist_size and max_suggestions must be positive")
	}
	if p.DefaultDurationMinutes <= 0 {
		return fmt.Errorf("assembler: default_duration_minutes must be positive")
	}
	if p.ReasoningTimeout <= 0 {
		return fmt.Errorf("assembler: reasoning timeout must be positive")
	}
	return nil
}

// IsCanonical reports whether t is a standard start time.
func (p Policy) IsCanonical(t model.TimeOfDay) bool {
	for _, s := range p.StandardStartTimes {
		if s == t {
			return true
		}
	}
	return false
}
