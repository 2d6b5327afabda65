// Package audit persists one record per ranking operation so that offered
// suggestions can be reviewed later.
package audit

import (
	"context"
	"time"

	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

// Record captures one ranking request and its outcome.
type Record struct {
	Timestamp       time.Time                   `json:"timestamp"`
	RequestID       string                      `json:"request_id"`
	Request         model.NewJobRequest         `json:"request"`
	State           string                      `json:"state"`
	FailureReason   string                      `json:"failure_reason,omitempty"`
	DurationMinutes int                         `json:"duration_minutes"`
	Zone            string                      `json:"zone,omitempty"`
	Shortlist       []string                    `json:"shortlist"`
	Suggestions     []model.CandidateSuggestion `json:"suggestions"`
	Warnings        []string                    `json:"warnings,omitempty"`
}

// Mentions reports whether the technician was shortlisted or suggested.
func (r Record) Mentions(techID string) bool {
	for _, id := range r.Shortlist {
		if id == techID {
			return true
		}
	}
	for _, s := range r.Suggestions {
		if s.TechnicianID == techID {
			return true
		}
	}
	return false
}

// Query defines filters for retrieving records. Zero fields match all.
type Query struct {
	Start        time.Time
	End          time.Time
	TechnicianID string
	State        string
}

// Match reports whether r passes the filters.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.State != "" && r.State != q.State {
		return false
	}
	if q.TechnicianID != "" && !r.Mentions(q.TechnicianID) {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error          { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
