package geo

import (
	"errors"
	"fmt"

	"github.com/kwikdrytn/kwikdry-sub000/core/model"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrUnsupportedGeometry is returned for GeoJSON geometries other than
// Polygon and MultiPolygon.
var ErrUnsupportedGeometry = errors.New("geo: unsupported geometry type")

// ParseBoundaryGeoJSON decodes a GeoJSON Polygon or MultiPolygon geometry.
// Only outer rings are kept: one for a polygon, one per member of a
// multipolygon, in document order.
func ParseBoundaryGeoJSON(data []byte) (*model.Boundary, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("geo: decode geojson: %w", err)
	}
	return BoundaryFromOrb(g.Geometry())
}

// BoundaryFromOrb converts an orb polygon or multipolygon into a Boundary.
func BoundaryFromOrb(g orb.Geometry) (*model.Boundary, error) {
	switch v := g.(type) {
	case orb.Polygon:
		if len(v) == 0 {
			return nil, fmt.Errorf("geo: empty polygon")
		}
		return &model.Boundary{Kind: model.BoundaryPolygon, Rings: []model.Ring{FromOrbRing(v[0])}}, nil
	case orb.MultiPolygon:
		b := &model.Boundary{Kind: model.BoundaryMultiPolygon}
		for _, p := range v {
			if len(p) == 0 {
				continue
			}
			b.Rings = append(b.Rings, FromOrbRing(p[0]))
		}
		if len(b.Rings) == 0 {
			return nil, fmt.Errorf("geo: empty multipolygon")
		}
		return b, nil
	case nil:
		return nil, fmt.Errorf("%w: <nil>", ErrUnsupportedGeometry)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
	}
}

// BoundaryToOrb converts a Boundary to an orb geometry.
func BoundaryToOrb(b *model.Boundary) orb.Geometry {
	if b == nil || len(b.Rings) == 0 {
		return nil
	}
	if b.Kind == model.BoundaryMultiPolygon {
		mp := make(orb.MultiPolygon, 0, len(b.Rings))
		for _, r := range b.Rings {
			mp = append(mp, orb.Polygon{ToOrbRing(r)})
		}
		return mp
	}
	return orb.Polygon{ToOrbRing(b.Rings[0])}
}

// BoundaryGeoJSON encodes a boundary as a GeoJSON geometry.
func BoundaryGeoJSON(b *model.Boundary) ([]byte, error) {
	g := BoundaryToOrb(b)
	if g == nil {
		return nil, fmt.Errorf("geo: empty boundary")
	}
	return geojson.NewGeometry(g).MarshalJSON()
}
