package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

type fakeStore struct {
	zones []model.ServiceZone
	techs []model.Technician
	jobs  []model.ExistingJob

	jobCoords  map[string]model.Coordinate
	homes      map[string]model.Coordinate
	boundaries map[string]*model.Boundary
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobCoords:  map[string]model.Coordinate{},
		homes:      map[string]model.Coordinate{},
		boundaries: map[string]*model.Boundary{},
	}
}

func (f *fakeStore) Zones(context.Context) ([]model.ServiceZone, error)        { return f.zones, nil }
func (f *fakeStore) Technicians(context.Context) ([]model.Technician, error)   { return f.techs, nil }
func (f *fakeStore) SkillRecords(context.Context) ([]model.SkillRecord, error) { return nil, nil }
func (f *fakeStore) ScheduledJobs(context.Context, model.Date, model.Date) ([]model.ExistingJob, error) {
	return nil, nil
}
func (f *fakeStore) CompletedJobs(context.Context, int) ([]model.ExistingJob, error) { return nil, nil }
func (f *fakeStore) JobsMissingCoordinates(context.Context) ([]model.ExistingJob, error) {
	return f.jobs, nil
}
func (f *fakeStore) SetJobCoordinate(_ context.Context, id string, c model.Coordinate) error {
	f.jobCoords[id] = c
	return nil
}
func (f *fakeStore) SetTechnicianHome(_ context.Context, id string, c model.Coordinate) error {
	f.homes[id] = c
	return nil
}
func (f *fakeStore) SetZoneBoundary(_ context.Context, id string, b *model.Boundary) error {
	f.boundaries[id] = b
	return nil
}

type mapGeocoder struct {
	known map[string]model.Coordinate
	err   error
}

func (g mapGeocoder) Geocode(_ context.Context, address string) (*model.Coordinate, error) {
	if g.err != nil {
		return nil, g.err
	}
	if c, ok := g.known[address]; ok {
		return &c, nil
	}
	return nil, nil
}

func square(lat, lon float64) model.Ring {
	return model.Ring{
		{Latitude: lat, Longitude: lon}, {Latitude: lat, Longitude: lon + 0.1},
		{Latitude: lat + 0.1, Longitude: lon + 0.1}, {Latitude: lat, Longitude: lon},
	}
}

type mapBoundaries map[string]*model.Boundary

func (m mapBoundaries) PostalCodeBoundary(_ context.Context, code string) (*model.Boundary, error) {
	if code == "fail" {
		return nil, errors.New("upstream down")
	}
	return m[code], nil
}

var codes = mapBoundaries{
	"80202": {Kind: model.BoundaryPolygon, Rings: []model.Ring{square(39.7, -105)}},
	"80203": {Kind: model.BoundaryMultiPolygon, Rings: []model.Ring{square(39.8, -105), square(39.9, -105)}},
	"80204": {Kind: model.BoundaryPolygon, Rings: []model.Ring{square(40, -105)}},
}

func TestBuildZoneBoundary(t *testing.T) {
	ctx := context.Background()

	b, err := BuildZoneBoundary(ctx, codes, []string{"80202", "99999"})
	require.NoError(t, err)
	assert.Equal(t, model.BoundaryPolygon, b.Kind)
	assert.Len(t, b.Rings, 1)

	b, err = BuildZoneBoundary(ctx, codes, []string{"80202", "80203", "80204"})
	require.NoError(t, err)
	assert.Equal(t, model.BoundaryMultiPolygon, b.Kind)
	assert.Len(t, b.Rings, 4)

	_, err = BuildZoneBoundary(ctx, codes, []string{"99999"})
	assert.ErrorIs(t, err, ErrNoBoundary)

	_, err = BuildZoneBoundary(ctx, codes, []string{"fail"})
	assert.ErrorContains(t, err, "upstream down")
}

func TestRun(t *testing.T) {
	st := newFakeStore()
	st.jobs = []model.ExistingJob{{ID: "j1", Address: "1 Main St"}, {ID: "j2", Address: "unknown"}}
	home := model.Coordinate{Latitude: 39, Longitude: -105}
	st.techs = []model.Technician{
		{ID: "t1", Address: "2 Elm St"},
		{ID: "t2", Address: "3 Oak St", Home: &home},
		{ID: "t3"},
	}
	st.zones = []model.ServiceZone{
		{ID: "z1", PostalCodes: []string{"80202", "80204"}},
		{ID: "z2", PostalCodes: []string{"99999"}},
		{ID: "z3"},
	}
	gc := mapGeocoder{known: map[string]model.Coordinate{
		"1 Main St": {Latitude: 39.7, Longitude: -104.9},
		"2 Elm St":  {Latitude: 39.6, Longitude: -104.8},
	}}

	ing, err := New(st, gc, codes, nil)
	require.NoError(t, err)
	rep, err := ing.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, rep.JobsGeocoded)
	assert.Equal(t, 1, rep.TechniciansGeocoded)
	assert.Equal(t, 1, rep.ZonesRebuilt)
	assert.Equal(t, []string{"job j2", "zone z2"}, rep.Unresolved)
	assert.Contains(t, st.jobCoords, "j1")
	assert.Contains(t, st.homes, "t1")
	assert.NotContains(t, st.homes, "t2")
	assert.Equal(t, model.BoundaryMultiPolygon, st.boundaries["z1"].Kind)
}

func TestRunWithoutBoundaryProvider(t *testing.T) {
	st := newFakeStore()
	st.zones = []model.ServiceZone{{ID: "z1", PostalCodes: []string{"80202"}}}
	ing, err := New(st, mapGeocoder{}, nil, nil)
	require.NoError(t, err)
	rep, err := ing.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.ZonesRebuilt)
	assert.Empty(t, st.boundaries)
}

func TestRunAbortsOnGeocoderError(t *testing.T) {
	st := newFakeStore()
	st.jobs = []model.ExistingJob{{ID: "j1", Address: "1 Main St"}}
	ing, err := New(st, mapGeocoder{err: errors.New("quota")}, nil, nil)
	require.NoError(t, err)
	_, err = ing.Run(context.Background())
	assert.ErrorContains(t, err, "geocode job j1")
}

func TestNewRejectsNil(t *testing.T) {
	_, err := New(nil, mapGeocoder{}, nil, nil)
	assert.Error(t, err)
}
