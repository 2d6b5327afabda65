package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kwikdrytn/kwikdry-sub000/core/assembler"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
	"github.com/kwikdrytn/kwikdry-sub000/core/schedule"
)

// HeuristicReasoner proposes suggestions without an external service. It
// walks dates by proximity of their nearest booking, then the rest of the
// window, and picks on each date the standard start closest to that
// booking's slot. The technician of a nearby booking is reused when
// shortlisted, otherwise the shortlist is used in order.
type HeuristicReasoner struct{}

// NewHeuristicReasoner returns a HeuristicReasoner.
func NewHeuristicReasoner() *HeuristicReasoner { return &HeuristicReasoner{} }

type response struct {
	Suggestions []assembler.RawSuggestion `json:"suggestions"`
	Analysis    string                    `json:"analysis"`
	Warnings    []string                  `json:"warnings,omitempty"`
}

// Reason implements assembler.Reasoner.
func (h *HeuristicReasoner) Reason(ctx context.Context, rc assembler.RankingContext) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out := response{Suggestions: []assembler.RawSuggestion{}}
	if len(rc.Shortlist) == 0 {
		out.Warnings = append(out.Warnings, "No technician available for this job.")
		return encode(out)
	}

	shortlisted := make(map[string]assembler.Candidate, len(rc.Shortlist))
	for _, c := range rc.Shortlist {
		shortlisted[c.TechnicianID] = c
	}

	next := 0
	for _, d := range candidateDates(rc) {
		if len(out.Suggestions) >= rc.MaxSuggestions {
			break
		}
		var nearest *schedule.NearbyJob
		if b := rc.Schedule.Buckets[d]; len(b) > 0 {
			nearest = &b[0]
		}
		start, adjacent, ok := bestStart(rc, nearest)
		if !ok {
			continue
		}

		cand, clustered := rc.Shortlist[next%len(rc.Shortlist)], false
		if adjacent {
			if c, ok := shortlisted[nearest.Job.TechnicianID]; ok {
				cand, clustered = c, true
			}
		}
		if !clustered {
			if nearest != nil && cand.TechnicianID == nearest.Job.TechnicianID && len(rc.Shortlist) > 1 {
				next++
				cand = rc.Shortlist[next%len(rc.Shortlist)]
			}
			next++
		}

		count := rc.Schedule.ByDate[d].Nearby
		s := assembler.RawSuggestion{
			Date:           d.String(),
			DayName:        d.Weekday().String(),
			TimeSlot:       &assembler.RawSlot{Start: start.String(), End: start.Add(rc.DurationMinutes).String()},
			TechnicianID:   cand.TechnicianID,
			NearbyJobCount: &count,
			SkillMatch:     string(cand.SkillMatch),
		}
		switch {
		case clustered:
			s.Confidence = string(model.ConfidenceHigh)
			s.Justification = fmt.Sprintf("%s already works %.1f mi away that day", cand.TechnicianID, nearest.Miles)
		case nearest != nil:
			s.Confidence = string(model.ConfidenceMedium)
			s.Justification = fmt.Sprintf("booking %.1f mi away that day", nearest.Miles)
		default:
			s.Confidence = string(model.ConfidenceLow)
			s.Justification = fmt.Sprintf("open day, %s lives %.1f mi away", cand.TechnicianID, cand.StraightLineMiles)
		}
		out.Suggestions = append(out.Suggestions, s)
	}

	if rc.Anchor != nil {
		out.Analysis = fmt.Sprintf("Closest existing job %s is %.1f mi away.", rc.Anchor.JobID, rc.Anchor.Miles)
	} else {
		out.Analysis = "No existing jobs to cluster with; suggesting the nearest technicians on open days."
	}
	return encode(out)
}

func encode(r response) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("reasoning: encode response: %w", err)
	}
	return string(data), nil
}

// candidateDates lists dates with nearby bookings first, closest first,
// then the remaining window dates in order. Preferred days filter the list
// unless nothing would remain.
func candidateDates(rc assembler.RankingContext) []model.Date {
	seen := make(map[model.Date]bool)
	var dates []model.Date
	add := func(d model.Date) {
		if seen[d] || d.Before(rc.WindowStart) || !d.Before(rc.WindowEnd) {
			return
		}
		seen[d] = true
		dates = append(dates, d)
	}
	nearest := make([]model.Date, 0, len(rc.Schedule.Buckets))
	for d, b := range rc.Schedule.Buckets {
		if len(b) > 0 {
			nearest = append(nearest, d)
		}
	}
	sort.Slice(nearest, func(i, j int) bool {
		mi, mj := rc.Schedule.Buckets[nearest[i]][0].Miles, rc.Schedule.Buckets[nearest[j]][0].Miles
		if mi != mj {
			return mi < mj
		}
		return nearest[i].Before(nearest[j])
	})
	for _, d := range nearest {
		add(d)
	}
	for d := rc.WindowStart; d.Before(rc.WindowEnd); d = d.AddDays(1) {
		if d.Weekday() == time.Sunday {
			continue
		}
		add(d)
	}

	if len(rc.PreferredDays) == 0 {
		return dates
	}
	want := make(map[time.Weekday]bool, len(rc.PreferredDays))
	for _, w := range rc.PreferredDays {
		want[time.Weekday(w)] = true
	}
	var filtered []model.Date
	for _, d := range dates {
		if want[d.Weekday()] {
			filtered = append(filtered, d)
		}
	}
	if len(filtered) == 0 {
		return dates
	}
	return filtered
}

// bestStart picks the standard start inside the preferred window that does
// not overlap the nearby booking and leaves the smallest gap to it. adjacent
// reports whether such a start was found. Starts whose slot would run past
// midnight are never picked.
func bestStart(rc assembler.RankingContext, nearby *schedule.NearbyJob) (start model.TimeOfDay, adjacent, ok bool) {
	var fits, starts []model.TimeOfDay
	for _, s := range rc.StandardStartTimes {
		if !s.Add(rc.DurationMinutes).WithinDay() {
			continue
		}
		fits = append(fits, s)
		if w := rc.PreferredWindow; w != nil && (s < w.Start || s.Add(rc.DurationMinutes) > w.End) {
			continue
		}
		starts = append(starts, s)
	}
	if len(starts) == 0 {
		starts = fits
	}
	if len(starts) == 0 {
		return 0, false, false
	}
	if nearby == nil {
		return starts[0], false, true
	}
	slot, known := nearby.Job.Slot()
	if !known {
		return starts[0], true, true
	}

	best, bestGap := model.TimeOfDay(0), -1
	for _, s := range starts {
		w := model.TimeWindow{Start: s, End: s.Add(rc.DurationMinutes)}
		if w.Overlaps(slot) {
			continue
		}
		gap := int(slot.Start - w.End)
		if w.Start >= slot.End {
			gap = int(w.Start - slot.End)
		}
		if bestGap < 0 || gap < bestGap {
			best, bestGap = s, gap
		}
	}
	if bestGap < 0 {
		return starts[0], false, true
	}
	return best, true, true
}
