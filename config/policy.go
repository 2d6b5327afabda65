package config

import (
	"fmt"
	"time"

	"github.com/kwikdrytn/kwikdry-sub000/core/assembler"
	"github.com/kwikdrytn/kwikdry-sub000/core/duration"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
	"github.com/kwikdrytn/kwikdry-sub000/core/schedule"
)

// PolicyConfig holds the organization's ranking policy constants.
type PolicyConfig struct {
	StandardStartTimes      []string `json:"standard_start_times"`
	NearbyRadiusMiles       float64  `json:"nearby_radius_miles"`
	ProximityRadiusMiles    float64  `json:"proximity_radius_miles"`
	WindowDays              int      `json:"window_days"`
	OutlierMinutes          int      `json:"outlier_minutes"`
	MinSamples              int      `json:"min_samples"`
	ExtraServiceFactor      float64  `json:"extra_service_factor"`
	RoutedLookupLimit       int      `json:"routed_lookup_limit"`
	ShortlistSize           int      `json:"shortlist_size"`
	MaxSuggestions          int      `json:"max_suggestions"`
	NarrativeJobsPerDate    int      `json:"narrative_jobs_per_date"`
	NarrativeDates          int      `json:"narrative_dates"`
	DefaultDurationMinutes  int      `json:"default_duration_minutes"`
	SkillTieBreakMiles      float64  `json:"skill_tie_break_miles"`
	RoutedTimeoutSeconds    int      `json:"routed_timeout_seconds"`
	ReasoningTimeoutSeconds int      `json:"reasoning_timeout_seconds"`
}

// SetDefaults applies the standard policy to unset fields.
func (c *PolicyConfig) SetDefaults() {
	def := assembler.DefaultPolicy()
	if len(c.StandardStartTimes) == 0 {
		for _, t := range def.StandardStartTimes {
			c.StandardStartTimes = append(c.StandardStartTimes, t.String())
		}
	}
	if c.NearbyRadiusMiles == 0 {
		c.NearbyRadiusMiles = def.Schedule.NearbyRadiusMiles
	}
	if c.ProximityRadiusMiles == 0 {
		c.ProximityRadiusMiles = def.Schedule.ProximityRadiusMiles
	}
	if c.WindowDays == 0 {
		c.WindowDays = def.WindowDays
	}
	if c.OutlierMinutes == 0 {
		c.OutlierMinutes = def.Duration.OutlierMinutes
	}
	if c.MinSamples == 0 {
		c.MinSamples = def.Duration.MinSamples
	}
	if c.ExtraServiceFactor == 0 {
		c.ExtraServiceFactor = def.Duration.ExtraServiceFactor
	}
	if c.RoutedLookupLimit == 0 {
		c.RoutedLookupLimit = 5
	}
	if c.ShortlistSize == 0 {
		c.ShortlistSize = def.ShortlistSize
	}
	if c.MaxSuggestions == 0 {
		c.MaxSuggestions = def.MaxSuggestions
	}
	if c.NarrativeJobsPerDate == 0 {
		c.NarrativeJobsPerDate = def.Schedule.NarrativeJobsPerDate
	}
	if c.NarrativeDates == 0 {
		c.NarrativeDates = def.Schedule.NarrativeDates
	}
	if c.DefaultDurationMinutes == 0 {
		c.DefaultDurationMinutes = def.DefaultDurationMinutes
	}
	if c.SkillTieBreakMiles == 0 {
		c.SkillTieBreakMiles = def.SkillTieBreakMiles
	}
	if c.RoutedTimeoutSeconds == 0 {
		c.RoutedTimeoutSeconds = 5
	}
	if c.ReasoningTimeoutSeconds == 0 {
		c.ReasoningTimeoutSeconds = int(def.ReasoningTimeout / time.Second)
	}
}

// Validate checks that the policy can be turned into an assembler policy.
func (c PolicyConfig) Validate() error {
	if _, err := c.ToPolicy(); err != nil {
		return err
	}
	if c.RoutedLookupLimit < 0 {
		return fmt.Errorf("routed_lookup_limit must be >= 0")
	}
	if c.RoutedTimeoutSeconds < 0 {
		return fmt.Errorf("routed_timeout_seconds must be >= 0")
	}
	return nil
}

// ToPolicy builds the assembler policy.
func (c PolicyConfig) ToPolicy() (assembler.Policy, error) {
	starts := make([]model.TimeOfDay, 0, len(c.StandardStartTimes))
	for _, s := range c.StandardStartTimes {
		t, err := model.ParseTimeOfDay(s)
		if err != nil {
			return assembler.Policy{}, fmt.Errorf("standard_start_times: %w", err)
		}
		starts = append(starts, t)
	}
	p := assembler.Policy{
		StandardStartTimes:     starts,
		WindowDays:             c.WindowDays,
		ShortlistSize:          c.ShortlistSize,
		MaxSuggestions:         c.MaxSuggestions,
		DefaultDurationMinutes: c.DefaultDurationMinutes,
		SkillTieBreakMiles:     c.SkillTieBreakMiles,
		HistoryLimit:           assembler.DefaultPolicy().HistoryLimit,
		ReasoningTimeout:       time.Duration(c.ReasoningTimeoutSeconds) * time.Second,
		Schedule: schedule.Policy{
			NearbyRadiusMiles:    c.NearbyRadiusMiles,
			ProximityRadiusMiles: c.ProximityRadiusMiles,
			NarrativeDates:       c.NarrativeDates,
			NarrativeJobsPerDate: c.NarrativeJobsPerDate,
		},
		Duration: duration.Policy{
			OutlierMinutes:     c.OutlierMinutes,
			MinSamples:         c.MinSamples,
			ExtraServiceFactor: c.ExtraServiceFactor,
		},
	}
	if err := p.Validate(); err != nil {
		return assembler.Policy{}, err
	}
	return p, nil
}

// RoutedTimeout is the per-call budget of a driving distance lookup.
func (c PolicyConfig) RoutedTimeout() time.Duration {
	return time.Duration(c.RoutedTimeoutSeconds) * time.Second
}
