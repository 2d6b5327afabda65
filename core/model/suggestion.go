package model

import "strings"

// Confidence labels how strongly a suggestion is recommended.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// NormalizeConfidence maps free text to a known label, defaulting to low.
func NormalizeConfidence(s string) Confidence {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c
	default:
		return ConfidenceLow
	}
}

// CandidateSuggestion is one proposed (date, slot, technician) assignment.
type CandidateSuggestion struct {
	Date           Date       `json:"date"`
	DayName        string     `json:"day_name"`
	Slot           TimeWindow `json:"time_slot"`
	Confidence     Confidence `json:"confidence"`
	TechnicianID   string     `json:"technician_id"`
	NearbyJobCount int        `json:"nearby_job_count"`
	SkillMatch     SkillLevel `json:"skill_match"`
	Justification  string     `json:"justification"`
}
