package assembler

import (
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
	"github.com/kwikdrytn/kwikdry-sub000/core/schedule"
	"github.com/kwikdrytn/kwikdry-sub000/core/skills"
)

// Duration sources reported in RankingContext.DurationSource.
const (
	DurationFromRequest = "request"
	DurationFromHistory = "history"
	DurationFromDefault = "default"
)

// ZoneRef names the service zone containing the job site.
type ZoneRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Anchor is the closest existing booking, the preferred clustering point.
type Anchor struct {
	JobID        string            `json:"job_id"`
	Date         *model.Date       `json:"date,omitempty"`
	Slot         *model.TimeWindow `json:"slot,omitempty"`
	TechnicianID string            `json:"technician_id,omitempty"`
	City         string            `json:"city,omitempty"`
	Miles        float64           `json:"miles"`
}

// Candidate is a shortlisted technician.
type Candidate struct {
	TechnicianID      string           `json:"technician_id"`
	Name              string           `json:"name"`
	StraightLineMiles float64          `json:"straight_line_miles"`
	DrivingMiles      *float64         `json:"driving_miles,omitempty"`
	DrivingMinutes    *float64         `json:"driving_minutes,omitempty"`
	SkillMatch        model.SkillLevel `json:"skill_match"`
	Skills            skills.Summary   `json:"skills"`
}

// DateLoad is the booking load of one date.
type DateLoad struct {
	Date    model.Date `json:"date"`
	Weekday string     `json:"weekday"`
	Total   int        `json:"total"`
	Nearby  int        `json:"nearby"`
}

// RankingContext is everything handed to the reasoning service. Hard
// excluded technicians never appear in it.
type RankingContext struct {
	RequestID          string            `json:"request_id"`
	Target             model.Coordinate  `json:"target"`
	ServiceNames       []string          `json:"service_names"`
	DurationMinutes    int               `json:"duration_minutes"`
	DurationSource     string            `json:"duration_source"`
	Zone               *ZoneRef          `json:"zone,omitempty"`
	Anchor             *Anchor           `json:"anchor,omitempty"`
	Shortlist          []Candidate       `json:"shortlist"`
	Narrative          string            `json:"narrative"`
	DateLoads          []DateLoad        `json:"date_loads"`
	WindowStart        model.Date        `json:"window_start"`
	WindowEnd          model.Date        `json:"window_end"`
	StandardStartTimes []model.TimeOfDay `json:"standard_start_times"`
	PreferredDays      []model.Weekday   `json:"preferred_days,omitempty"`
	PreferredWindow    *model.TimeWindow `json:"preferred_window,omitempty"`
	Restrictions       string            `json:"restrictions,omitempty"`
	MaxSuggestions     int               `json:"max_suggestions"`

	// Schedule gives in-process reasoners the full proximity views.
	Schedule schedule.Context `json:"-"`
}

func newAnchor(nj *schedule.NearbyJob) *Anchor {
	if nj == nil {
		return nil
	}
	a := &Anchor{
		JobID:        nj.Job.ID,
		Date:         nj.Job.ScheduledDate,
		TechnicianID: nj.Job.TechnicianID,
		City:         nj.Job.City,
		Miles:        nj.Miles,
	}
	if slot, ok := nj.Job.Slot(); ok {
		a.Slot = &slot
	}
	return a
}

func dateLoads(sc schedule.Context) []DateLoad {
	dates := sc.Dates()
	out := make([]DateLoad, 0, len(dates))
	for _, d := range dates {
		t := sc.ByDate[d]
		out = append(out, DateLoad{Date: d, Weekday: d.Weekday().String(), Total: t.Total, Nearby: t.Nearby})
	}
	return out
}
