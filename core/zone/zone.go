// Package zone resolves which service zone contains a coordinate.
package zone

import (
	"github.com/kwikdrytn/kwikdry-sub000/core/geo"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

// Match returns the first zone, in the order given, whose boundary contains
// p. Only the first ring of a boundary is tested, so a multipolygon is
// matched on its first member. Zones without a boundary are skipped.
// Overlapping zones are not disambiguated; callers order zones by priority.
func Match(p model.Coordinate, zones []model.ServiceZone) *model.ServiceZone {
	for i := range zones {
		ring := zones[i].Boundary.First()
		if ring == nil {
			continue
		}
		if geo.PointInPolygon(p, ring) {
			return &zones[i]
		}
	}
	return nil
}
