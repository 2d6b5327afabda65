// Package schedule groups the existing bookings of a look-ahead window by
// date and by proximity to a new job site.
package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kwikdrytn/kwikdry-sub000/core/geo"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

// Policy holds the proximity thresholds and narrative caps.
type Policy struct {
	NearbyRadiusMiles    float64
	ProximityRadiusMiles float64
	NarrativeDates       int
	NarrativeJobsPerDate int
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		NearbyRadiusMiles:    15,
		ProximityRadiusMiles: 10,
		NarrativeDates:       7,
		NarrativeJobsPerDate: 5,
	}
}

// DateTotals counts the bookings of one date.
type DateTotals struct {
	Total  int `json:"total"`
	Nearby int `json:"nearby"`
}

// NearbyJob is a booking annotated with its distance to the new job.
type NearbyJob struct {
	Job   model.ExistingJob `json:"job"`
	Miles float64           `json:"miles"`
}

// Context is the schedule seen from a new job site.
type Context struct {
	ByDate  map[model.Date]DateTotals  `json:"by_date"`
	Buckets map[model.Date][]NearbyJob `json:"buckets"`
	// Closest is the anchor job: the nearest booking with a coordinate,
	// whatever its date.
	Closest *NearbyJob `json:"closest,omitempty"`

	policy Policy
}

// Build derives all views in a single pass over jobs. The caller restricts
// jobs to the look-ahead window beforehand.
func Build(target model.Coordinate, jobs []model.ExistingJob, p Policy) Context {
	ctx := Context{
		ByDate:  make(map[model.Date]DateTotals),
		Buckets: make(map[model.Date][]NearbyJob),
		policy:  p,
	}
	for _, j := range jobs {
		miles, located := -1.0, j.Coordinate != nil
		if located {
			miles = geo.Distance(target, *j.Coordinate)
			if ctx.Closest == nil || miles < ctx.Closest.Miles {
				ctx.Closest = &NearbyJob{Job: j, Miles: miles}
			}
		}
		if j.ScheduledDate == nil {
			continue
		}
		d := *j.ScheduledDate
		t := ctx.ByDate[d]
		t.Total++
		if located && miles < p.NearbyRadiusMiles {
			t.Nearby++
		}
		ctx.ByDate[d] = t
		if located && miles < p.ProximityRadiusMiles {
			ctx.Buckets[d] = append(ctx.Buckets[d], NearbyJob{Job: j, Miles: miles})
		}
	}
	for d := range ctx.Buckets {
		b := ctx.Buckets[d]
		sort.SliceStable(b, func(i, k int) bool { return b[i].Miles < b[k].Miles })
	}
	return ctx
}

// Dates returns the dates with at least one booking, ascending.
func (c Context) Dates() []model.Date {
	out := make([]model.Date, 0, len(c.ByDate))
	for d := range c.ByDate {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// NearestDates returns the dates with nearby bookings ordered by the
// distance of each date's closest booking, ties by date, capped at
// NarrativeDates.
func (c Context) NearestDates() []model.Date {
	out := make([]model.Date, 0, len(c.Buckets))
	for d, b := range c.Buckets {
		if len(b) > 0 {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		mi, mj := c.Buckets[out[i]][0].Miles, c.Buckets[out[j]][0].Miles
		if mi != mj {
			return mi < mj
		}
		return out[i].Before(out[j])
	})
	if n := c.policy.NarrativeDates; n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Narrative renders the nearby bookings as text for the reasoning service.
func (c Context) Narrative() string {
	dates := c.NearestDates()
	if len(dates) == 0 {
		return fmt.Sprintf("No existing jobs within %.0f miles in the scheduling window.", c.policy.ProximityRadiusMiles)
	}
	var sb strings.Builder
	for i, d := range dates {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s (%s):\n", d, d.Weekday())
		jobs := c.Buckets[d]
		if n := c.policy.NarrativeJobsPerDate; n > 0 && len(jobs) > n {
			jobs = jobs[:n]
		}
		for _, nj := range jobs {
			sb.WriteString("  - ")
			sb.WriteString(describe(nj))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func describe(nj NearbyJob) string {
	j := nj.Job
	parts := []string{fmt.Sprintf("%.1f mi", nj.Miles)}
	if slot, ok := j.Slot(); ok {
		parts = append(parts, fmt.Sprintf("%s-%s", slot.Start, slot.End))
	}
	if j.City != "" {
		parts = append(parts, j.City)
	}
	if j.TechnicianID != "" {
		parts = append(parts, "tech "+j.TechnicianID)
	}
	if len(j.ServiceNames) > 0 {
		parts = append(parts, strings.Join(j.ServiceNames, ", "))
	}
	return strings.Join(parts, " | ")
}

// Window returns the half-open date range [from, from+days).
func Window(from model.Date, days int) (start, end model.Date) {
	return from, from.AddDays(days)
}
