package model

import (
	"fmt"
	"strings"
	"time"
)

// ExistingJob is a booking already on the calendar, or a completed job when
// read from history.
type ExistingJob struct {
	ID             string      `json:"id" yaml:"id"`
	Address        string      `json:"address,omitempty" yaml:"address"`
	Coordinate     *Coordinate `json:"coordinate,omitempty" yaml:"coordinate"`
	ScheduledDate  *Date       `json:"scheduled_date,omitempty" yaml:"scheduled_date"`
	ScheduledStart *TimeOfDay  `json:"scheduled_start,omitempty" yaml:"scheduled_start"`
	ScheduledEnd   *TimeOfDay  `json:"scheduled_end,omitempty" yaml:"scheduled_end"`
	TechnicianID   string      `json:"technician_id,omitempty" yaml:"technician_id"`
	City           string      `json:"city,omitempty" yaml:"city"`
	ServiceNames   []string    `json:"service_names,omitempty" yaml:"service_names"`
}

// Slot returns the scheduled window when both ends are known.
func (j ExistingJob) Slot() (TimeWindow, bool) {
	if j.ScheduledStart == nil || j.ScheduledEnd == nil {
		return TimeWindow{}, false
	}
	return TimeWindow{Start: *j.ScheduledStart, End: *j.ScheduledEnd}, true
}

// Technician is a field worker. Only technicians with a home coordinate
// take part in distance ranking.
type Technician struct {
	ID      string      `json:"id" yaml:"id"`
	Name    string      `json:"name" yaml:"name"`
	Address string      `json:"address,omitempty" yaml:"address"`
	Home    *Coordinate `json:"home,omitempty" yaml:"home"`
}

// Weekday wraps time.Weekday with a textual encoding ("monday", "Mon").
type Weekday time.Weekday

// ParseWeekday accepts full or three letter English day names in any case.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return Weekday(d), nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

func (d Weekday) String() string { return time.Weekday(d).String() }

// MarshalText encodes the weekday by its English name.
func (d Weekday) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText decodes an English weekday name.
func (d *Weekday) UnmarshalText(b []byte) error {
	p, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = p
	return nil
}

// NewJobRequest is the input of one ranking operation.
type NewJobRequest struct {
	Target          Coordinate  `json:"target" yaml:"target"`
	ServiceNames    []string    `json:"service_names" yaml:"service_names" validate:"required,min=1,dive,required"`
	DurationMinutes *int        `json:"duration_minutes,omitempty" yaml:"duration_minutes" validate:"omitempty,gt=0,lt=1440"`
	PreferredDays   []Weekday   `json:"preferred_days,omitempty" yaml:"preferred_days"`
	PreferredWindow *TimeWindow `json:"preferred_window,omitempty" yaml:"preferred_window"`
	Restrictions    *string     `json:"restrictions,omitempty" yaml:"restrictions"`
}
