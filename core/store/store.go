// Package store defines the read and ingestion interfaces over the
// organization's jobs, technicians, zones and skill records.
package store

import (
	"context"
	"errors"

	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Reader is the query interface used by ranking operations. Every call
// returns fresh data.
type Reader interface {
	// Zones returns service zones in matching priority order.
	Zones(ctx context.Context) ([]model.ServiceZone, error)
	Technicians(ctx context.Context) ([]model.Technician, error)
	SkillRecords(ctx context.Context) ([]model.SkillRecord, error)
	// ScheduledJobs returns bookings dated within [from, to).
	ScheduledJobs(ctx context.Context, from, to model.Date) ([]model.ExistingJob, error)
	// CompletedJobs returns up to limit completed jobs, most recent first.
	CompletedJobs(ctx context.Context, limit int) ([]model.ExistingJob, error)
}

// Writer is used by ingestion to fill in derived data.
type Writer interface {
	// JobsMissingCoordinates returns jobs with an address but no coordinate.
	JobsMissingCoordinates(ctx context.Context) ([]model.ExistingJob, error)
	SetJobCoordinate(ctx context.Context, jobID string, c model.Coordinate) error
	SetTechnicianHome(ctx context.Context, techID string, c model.Coordinate) error
	SetZoneBoundary(ctx context.Context, zoneID string, b *model.Boundary) error
}

// ReadWriter combines both interfaces.
type ReadWriter interface {
	Reader
	Writer
}
