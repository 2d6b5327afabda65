package model

import (
	"fmt"
	"strings"
)

// SkillLevel is a technician's disposition towards a service type.
type SkillLevel string

const (
	SkillPreferred SkillLevel = "preferred"
	SkillStandard  SkillLevel = "standard"
	SkillAvoid     SkillLevel = "avoid"
	SkillNever     SkillLevel = "never"
)

// ParseSkillLevel parses a level name, case-insensitively.
func ParseSkillLevel(s string) (SkillLevel, error) {
	switch l := SkillLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case SkillPreferred, SkillStandard, SkillAvoid, SkillNever:
		return l, nil
	default:
		return "", fmt.Errorf("invalid skill level %q", s)
	}
}

// Rank orders levels from most to least desirable. Unknown levels rank with
// standard.
func (l SkillLevel) Rank() int {
	switch l {
	case SkillPreferred:
		return 0
	case SkillAvoid:
		return 2
	case SkillNever:
		return 3
	default:
		return 1
	}
}

// SkillRecord is one technician/service-type disposition. The data source
// guarantees at most one record per pair.
type SkillRecord struct {
	TechnicianID string     `json:"technician_id" yaml:"technician_id"`
	ServiceType  string     `json:"service_type" yaml:"service_type"`
	Level        SkillLevel `json:"level" yaml:"level"`
	Note         *string    `json:"note,omitempty" yaml:"note"`
}
