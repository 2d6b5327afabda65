package assembler

import (
	"strings"

	"github.com/kwikdrytn/kwikdry-sub000/core/model"
	"github.com/kwikdrytn/kwikdry-sub000/core/schedule"
	"github.com/kwikdrytn/kwikdry-sub000/core/skills"
)

// Drop describes a suggestion rejected by validation.
type Drop struct {
	Index        int    `json:"index"`
	TechnicianID string `json:"technician_id,omitempty"`
	Rule         string `json:"rule"`
	Detail       string `json:"detail,omitempty"`
}

// validator applies the hard scheduling rules to returned suggestions. It
// filters and corrects but never re-orders.
type validator struct {
	policy   Policy
	duration int
	services []string
	skills   *skills.Model
	sched    schedule.Context
	// from and to bound suggestion dates, to exclusive.
	from, to model.Date
	// shortlist holds the technicians offered to the reasoner.
	shortlist map[string]bool
	// bookings indexes existing slots by technician and date.
	bookings map[bookingKey][]model.TimeWindow
}

type bookingKey struct {
	tech string
	date model.Date
}

func newValidator(p Policy, rc RankingContext, sk *skills.Model, jobs []model.ExistingJob) *validator {
	v := &validator{
		policy:    p,
		duration:  rc.DurationMinutes,
		services:  rc.ServiceNames,
		skills:    sk,
		sched:     rc.Schedule,
		from:      rc.WindowStart,
		to:        rc.WindowEnd,
		shortlist: make(map[string]bool, len(rc.Shortlist)),
		bookings:  make(map[bookingKey][]model.TimeWindow),
	}
	for _, c := range rc.Shortlist {
		v.shortlist[c.TechnicianID] = true
	}
	for _, j := range jobs {
		slot, ok := j.Slot()
		if !ok || j.ScheduledDate == nil || j.TechnicianID == "" {
			continue
		}
		k := bookingKey{tech: j.TechnicianID, date: *j.ScheduledDate}
		v.bookings[k] = append(v.bookings[k], slot)
	}
	return v
}

// Validate returns the accepted suggestions, in upstream order, capped at
// MaxSuggestions, and the rejected ones.
func (v *validator) Validate(raw []RawSuggestion) ([]model.CandidateSuggestion, []Drop) {
	var (
		out   []model.CandidateSuggestion
		drops []Drop
	)
	for i, r := range raw {
		s, drop := v.check(r)
		if drop != nil {
			drop.Index = i
			drops = append(drops, *drop)
			continue
		}
		if v.overlapsAccepted(s, out) {
			drops = append(drops, Drop{Index: i, TechnicianID: s.TechnicianID, Rule: RuleOverlap, Detail: "overlaps an earlier suggestion"})
			continue
		}
		out = append(out, s)
	}
	if len(out) > v.policy.MaxSuggestions {
		out = out[:v.policy.MaxSuggestions]
	}
	return out, drops
}

func (v *validator) check(r RawSuggestion) (model.CandidateSuggestion, *Drop) {
	tech := strings.TrimSpace(r.TechnicianID)
	drop := func(rule, detail string) (model.CandidateSuggestion, *Drop) {
		return model.CandidateSuggestion{}, &Drop{TechnicianID: tech, Rule: rule, Detail: detail}
	}

	var start string
	if r.TimeSlot != nil {
		start = r.TimeSlot.Start
	}
	st, err := model.ParseTimeOfDay(start)
	if err != nil || !v.policy.IsCanonical(st) {
		return drop(RuleNonCanonicalStart, "start "+strings.TrimSpace(start))
	}
	if tech != "" && v.skills.ExcludedForAny(tech, v.services) {
		return drop(RuleHardExcluded, "technician excluded for requested service")
	}
	if tech != "" && !v.shortlist[tech] {
		return drop(RuleUnknownTechnician, "technician not on the shortlist")
	}
	date, err := model.ParseDate(r.Date)
	if err != nil {
		return drop(RuleInvalidDate, "date "+strings.TrimSpace(r.Date))
	}
	if date.Before(v.from) || !date.Before(v.to) {
		return drop(RuleOutsideWindow, "date "+date.String())
	}

	slot := model.TimeWindow{Start: st, End: st.Add(v.duration)}
	if !slot.End.WithinDay() {
		return drop(RuleSlotPastMidnight, "start "+st.String())
	}
	if tech != "" {
		for _, b := range v.bookings[bookingKey{tech: tech, date: date}] {
			if b.Overlaps(slot) {
				return drop(RuleOverlap, "overlaps an existing booking")
			}
		}
	}

	s := model.CandidateSuggestion{
		Date:          date,
		DayName:       date.Weekday().String(),
		Slot:          slot,
		Confidence:    model.NormalizeConfidence(r.Confidence),
		TechnicianID:  tech,
		Justification: strings.TrimSpace(r.Justification),
	}
	if r.NearbyJobCount != nil {
		s.NearbyJobCount = *r.NearbyJobCount
	} else {
		s.NearbyJobCount = v.sched.ByDate[date].Nearby
	}
	if lvl, err := model.ParseSkillLevel(r.SkillMatch); err == nil && lvl != model.SkillNever {
		s.SkillMatch = lvl
	} else if tech != "" {
		s.SkillMatch = v.skills.LevelForRequest(tech, v.services)
	} else {
		s.SkillMatch = model.SkillStandard
	}
	return s, nil
}

func (v *validator) overlapsAccepted(s model.CandidateSuggestion, accepted []model.CandidateSuggestion) bool {
	if s.TechnicianID == "" {
		return false
	}
	for _, a := range accepted {
		if a.TechnicianID == s.TechnicianID && a.Date == s.Date && a.Slot.Overlaps(s.Slot) {
			return true
		}
	}
	return false
}
