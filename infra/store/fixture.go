// Package store implements core/store over PostgreSQL and over in-memory
// YAML fixtures.
package store

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kwikdrytn/kwikdry-sub000/core/geo"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

// Job statuses.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
)

// Zone is a service zone as written in a fixture. GeoJSON, when set,
// replaces Boundary.
type Zone struct {
	model.ServiceZone `yaml:",inline"`
	GeoJSON           string `yaml:"geojson"`
}

// Job is a booking as written in a fixture. An empty status means scheduled.
type Job struct {
	model.ExistingJob `yaml:",inline"`
	Status            string `yaml:"status"`
}

// Completed reports whether the job belongs to the history.
func (j Job) Completed() bool {
	return strings.EqualFold(j.Status, StatusCompleted)
}

// Fixture is a complete data set.
type Fixture struct {
	Zones       []Zone              `yaml:"zones"`
	Technicians []model.Technician  `yaml:"technicians"`
	Skills      []model.SkillRecord `yaml:"skills"`
	Jobs        []Job               `yaml:"jobs"`
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a YAML fixture and resolves it.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("store: decode fixture: %w", err)
	}
	if err := f.Resolve(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Resolve decodes GeoJSON boundaries and normalizes skill levels. It is
// called by ParseFixture and by callers embedding a fixture in their own
// documents.
func (f *Fixture) Resolve() error {
	for i := range f.Zones {
		z := &f.Zones[i]
		if strings.TrimSpace(z.GeoJSON) == "" {
			continue
		}
		b, err := geo.ParseBoundaryGeoJSON([]byte(z.GeoJSON))
		if err != nil {
			return fmt.Errorf("store: zone %s: %w", z.ID, err)
		}
		z.Boundary = b
	}
	for i := range f.Skills {
		s := &f.Skills[i]
		level, err := model.ParseSkillLevel(string(s.Level))
		if err != nil {
			return fmt.Errorf("store: skill %s/%s: %w", s.TechnicianID, s.ServiceType, err)
		}
		s.Level = level
	}
	return nil
}
