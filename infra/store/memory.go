package store

import (
	"context"
	"sort"
	"sync"

	"github.com/kwikdrytn/kwikdry-sub000/core/model"
	corestore "github.com/kwikdrytn/kwikdry-sub000/core/store"
)

// Memory serves a fixture from memory. It is safe for concurrent use;
// writes from ingestion are kept in memory only.
type Memory struct {
	mu sync.RWMutex
	f  Fixture
}

var _ corestore.ReadWriter = (*Memory)(nil)

// NewMemory creates a store over a copy of f.
func NewMemory(f *Fixture) *Memory {
	m := &Memory{}
	if f != nil {
		m.f = Fixture{
			Zones:       append([]Zone(nil), f.Zones...),
			Technicians: append([]model.Technician(nil), f.Technicians...),
			Skills:      append([]model.SkillRecord(nil), f.Skills...),
			Jobs:        append([]Job(nil), f.Jobs...),
		}
	}
	return m
}

// Zones returns the zones in fixture order.
func (m *Memory) Zones(ctx context.Context) ([]model.ServiceZone, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.ServiceZone, len(m.f.Zones))
	for i, z := range m.f.Zones {
		out[i] = z.ServiceZone
	}
	return out, ctx.Err()
}

func (m *Memory) Technicians(ctx context.Context) ([]model.Technician, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Technician(nil), m.f.Technicians...), ctx.Err()
}

func (m *Memory) SkillRecords(ctx context.Context) ([]model.SkillRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.SkillRecord(nil), m.f.Skills...), ctx.Err()
}

// ScheduledJobs returns non-completed jobs dated within [from, to).
func (m *Memory) ScheduledJobs(ctx context.Context, from, to model.Date) ([]model.ExistingJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ExistingJob
	for _, j := range m.f.Jobs {
		if j.Completed() || j.ScheduledDate == nil {
			continue
		}
		if d := *j.ScheduledDate; d.Before(from) || !d.Before(to) {
			continue
		}
		out = append(out, j.ExistingJob)
	}
	return out, ctx.Err()
}

// CompletedJobs returns up to limit completed jobs, most recent first.
func (m *Memory) CompletedJobs(ctx context.Context, limit int) ([]model.ExistingJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ExistingJob
	for _, j := range m.f.Jobs {
		if j.Completed() {
			out = append(out, j.ExistingJob)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		da, db := out[a].ScheduledDate, out[b].ScheduledDate
		if da == nil || db == nil {
			return db == nil && da != nil
		}
		return db.Before(*da)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, ctx.Err()
}

// JobsMissingCoordinates returns jobs with an address but no coordinate.
func (m *Memory) JobsMissingCoordinates(ctx context.Context) ([]model.ExistingJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ExistingJob
	for _, j := range m.f.Jobs {
		if j.Coordinate == nil && j.Address != "" {
			out = append(out, j.ExistingJob)
		}
	}
	return out, ctx.Err()
}

func (m *Memory) SetJobCoordinate(_ context.Context, jobID string, c model.Coordinate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.f.Jobs {
		if m.f.Jobs[i].ID == jobID {
			m.f.Jobs[i].Coordinate = &c
			return nil
		}
	}
	return corestore.ErrNotFound
}

func (m *Memory) SetTechnicianHome(_ context.Context, techID string, c model.Coordinate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.f.Technicians {
		if m.f.Technicians[i].ID == techID {
			m.f.Technicians[i].Home = &c
			return nil
		}
	}
	return corestore.ErrNotFound
}

func (m *Memory) SetZoneBoundary(_ context.Context, zoneID string, b *model.Boundary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.f.Zones {
		if m.f.Zones[i].ID == zoneID {
			m.f.Zones[i].Boundary = b
			return nil
		}
	}
	return corestore.ErrNotFound
}
