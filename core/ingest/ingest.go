// Package ingest fills in the geographic data ranking depends on: job and
// technician coordinates from addresses, and zone boundaries from postal
// codes. It runs offline, never during a ranking request.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/kwikdrytn/kwikdry-sub000/core/logger"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
	"github.com/kwikdrytn/kwikdry-sub000/core/store"
)

// ErrNoBoundary is returned when none of a zone's postal codes resolved.
var ErrNoBoundary = errors.New("ingest: no postal code boundary resolved")

// Geocoder converts a free-text address to a coordinate. A nil coordinate
// with a nil error means the address is unknown.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*model.Coordinate, error)
}

// BoundaryProvider returns the outline of a postal code, nil when unknown.
type BoundaryProvider interface {
	PostalCodeBoundary(ctx context.Context, postalCode string) (*model.Boundary, error)
}

// BuildZoneBoundary assembles a zone outline from its postal codes. Each
// resolved code contributes the outer rings of its boundary; codes without a
// boundary are skipped. A single ring yields a polygon, several a
// multipolygon.
func BuildZoneBoundary(ctx context.Context, bp BoundaryProvider, postalCodes []string) (*model.Boundary, error) {
	var rings []model.Ring
	for _, code := range postalCodes {
		b, err := bp.PostalCodeBoundary(ctx, code)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("ingest: boundary for %s: %w", code, err)
		}
		if b == nil {
			continue
		}
		for _, r := range b.Rings {
			if len(r) >= 3 {
				rings = append(rings, r)
			}
		}
	}
	switch len(rings) {
	case 0:
		return nil, ErrNoBoundary
	case 1:
		return &model.Boundary{Kind: model.BoundaryPolygon, Rings: rings}, nil
	default:
		return &model.Boundary{Kind: model.BoundaryMultiPolygon, Rings: rings}, nil
	}
}

// Report summarises one ingestion run.
type Report struct {
	JobsGeocoded        int      `json:"jobs_geocoded"`
	TechniciansGeocoded int      `json:"technicians_geocoded"`
	ZonesRebuilt        int      `json:"zones_rebuilt"`
	Unresolved          []string `json:"unresolved,omitempty"`
}

// Ingester fills missing coordinates and boundaries in a store.
type Ingester struct {
	store      store.ReadWriter
	geocoder   Geocoder
	boundaries BoundaryProvider
	log        logger.Logger
}

// New creates an Ingester. The boundary provider may be nil, in which case
// zones are left untouched.
func New(st store.ReadWriter, gc Geocoder, bp BoundaryProvider, log logger.Logger) (*Ingester, error) {
	if st == nil || gc == nil {
		return nil, fmt.Errorf("ingest: nil parameter provided to New")
	}
	return &Ingester{store: st, geocoder: gc, boundaries: bp, log: logger.OrNop(log)}, nil
}

// Run geocodes jobs and technicians without coordinates and rebuilds the
// boundaries of zones defined by postal codes. Lookups that find nothing are
// listed in the report; provider errors abort the run.
func (i *Ingester) Run(ctx context.Context) (Report, error) {
	var rep Report

	jobs, err := i.store.JobsMissingCoordinates(ctx)
	if err != nil {
		return rep, fmt.Errorf("ingest: list jobs: %w", err)
	}
	for _, j := range jobs {
		c, err := i.geocoder.Geocode(ctx, j.Address)
		if err != nil {
			return rep, fmt.Errorf("ingest: geocode job %s: %w", j.ID, err)
		}
		if c == nil {
			rep.Unresolved = append(rep.Unresolved, "job "+j.ID)
			continue
		}
		if err := i.store.SetJobCoordinate(ctx, j.ID, *c); err != nil {
			return rep, err
		}
		rep.JobsGeocoded++
	}

	techs, err := i.store.Technicians(ctx)
	if err != nil {
		return rep, fmt.Errorf("ingest: list technicians: %w", err)
	}
	for _, t := range techs {
		if t.Home != nil || t.Address == "" {
			continue
		}
		c, err := i.geocoder.Geocode(ctx, t.Address)
		if err != nil {
			return rep, fmt.Errorf("ingest: geocode technician %s: %w", t.ID, err)
		}
		if c == nil {
			rep.Unresolved = append(rep.Unresolved, "technician "+t.ID)
			continue
		}
		if err := i.store.SetTechnicianHome(ctx, t.ID, *c); err != nil {
			return rep, err
		}
		rep.TechniciansGeocoded++
	}

	if i.boundaries == nil {
		return rep, nil
	}
	zones, err := i.store.Zones(ctx)
	if err != nil {
		return rep, fmt.Errorf("ingest: list zones: %w", err)
	}
	for _, z := range zones {
		if len(z.PostalCodes) == 0 {
			continue
		}
		b, err := BuildZoneBoundary(ctx, i.boundaries, z.PostalCodes)
		if errors.Is(err, ErrNoBoundary) {
			i.log.Warnf("zone %s: no postal code boundary found", z.ID)
			rep.Unresolved = append(rep.Unresolved, "zone "+z.ID)
			continue
		}
		if err != nil {
			return rep, err
		}
		if err := i.store.SetZoneBoundary(ctx, z.ID, b); err != nil {
			return rep, err
		}
		rep.ZonesRebuilt++
	}
	i.log.Infof("ingest done: %d jobs, %d technicians, %d zones, %d unresolved",
		rep.JobsGeocoded, rep.TechniciansGeocoded, rep.ZonesRebuilt, len(rep.Unresolved))
	return rep, nil
}
