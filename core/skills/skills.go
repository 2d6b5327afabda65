// Package skills answers per-technician service-type constraints.
//
// A never record is an absolute exclusion. The other levels only order
// technicians that are otherwise comparable.
package skills

import (
	"sort"
	"strings"

	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

type key struct {
	tech    string
	service string
}

// Model indexes skill records by technician and service type.
type Model struct {
	levels map[key]model.SkillLevel
	byTech map[string][]model.SkillRecord
}

// Summary groups a technician's non-standard service types by level.
type Summary struct {
	Preferred []string `json:"preferred,omitempty"`
	Avoid     []string `json:"avoid,omitempty"`
	Never     []string `json:"never,omitempty"`
}

// Empty reports whether the summary has no entries.
func (s Summary) Empty() bool {
	return len(s.Preferred) == 0 && len(s.Avoid) == 0 && len(s.Never) == 0
}

// New builds a model. Service types are matched case-insensitively. When the
// data source breaks the one-record-per-pair rule the last record wins.
func New(records []model.SkillRecord) *Model {
	m := &Model{
		levels: make(map[key]model.SkillLevel, len(records)),
		byTech: make(map[string][]model.SkillRecord),
	}
	for _, r := range records {
		k := key{tech: r.TechnicianID, service: normalize(r.ServiceType)}
		if k.service == "" {
			continue
		}
		m.levels[k] = r.Level
		m.byTech[r.TechnicianID] = append(m.byTech[r.TechnicianID], r)
	}
	return m
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// LevelFor returns the technician's level for a service type, standard when
// no record exists.
func (m *Model) LevelFor(techID, serviceType string) model.SkillLevel {
	if m == nil {
		return model.SkillStandard
	}
	if l, ok := m.levels[key{tech: techID, service: normalize(serviceType)}]; ok {
		return l
	}
	return model.SkillStandard
}

// IsHardExcluded reports whether the technician must never be offered for
// the service type.
func (m *Model) IsHardExcluded(techID, serviceType string) bool {
	return m.LevelFor(techID, serviceType) == model.SkillNever
}

// ExcludedForAny reports whether any requested service excludes the
// technician.
func (m *Model) ExcludedForAny(techID string, services []string) bool {
	for _, s := range services {
		if m.IsHardExcluded(techID, s) {
			return true
		}
	}
	return false
}

// LevelForRequest folds the levels of several services into one. never wins
// over avoid, avoid over preferred and preferred over standard.
func (m *Model) LevelForRequest(techID string, services []string) model.SkillLevel {
	out := model.SkillStandard
	for _, s := range services {
		l := m.LevelFor(techID, s)
		if precedence(l) > precedence(out) {
			out = l
		}
	}
	return out
}

func precedence(l model.SkillLevel) int {
	switch l {
	case model.SkillNever:
		return 3
	case model.SkillAvoid:
		return 2
	case model.SkillPreferred:
		return 1
	default:
		return 0
	}
}

// Summarize groups the technician's records by level. Service types are
// returned as recorded, sorted; standard records are omitted.
func (m *Model) Summarize(techID string) Summary {
	var s Summary
	if m == nil {
		return s
	}
	for _, r := range m.byTech[techID] {
		// skip records shadowed by a later duplicate
		if m.levels[key{tech: techID, service: normalize(r.ServiceType)}] != r.Level {
			continue
		}
		name := strings.TrimSpace(r.ServiceType)
		switch r.Level {
		case model.SkillPreferred:
			s.Preferred = append(s.Preferred, name)
		case model.SkillAvoid:
			s.Avoid = append(s.Avoid, name)
		case model.SkillNever:
			s.Never = append(s.Never, name)
		}
	}
	sort.Strings(s.Preferred)
	sort.Strings(s.Avoid)
	sort.Strings(s.Never)
	return s
}

// Compare orders levels for tie-breaking: negative when a should rank ahead
// of b, zero when equivalent.
func Compare(a, b model.SkillLevel) int {
	return a.Rank() - b.Rank()
}
