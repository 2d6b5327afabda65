// Package geo provides the geometric primitives used by zone matching,
// technician ranking and schedule clustering. Coordinates are treated as
// planar (x = longitude, y = latitude) for polygon operations and spherical
// for distances.
package geo

import (
	"math"

	"github.com/kwikdrytn/kwikdry-sub000/core/model"
	"github.com/paulmach/orb"
)

// EarthRadiusMiles is the mean Earth radius used by Distance.
const EarthRadiusMiles = 3959.0

// Distance returns the great-circle distance in miles between a and b using
// the haversine formula.
func Distance(a, b model.Coordinate) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// PointInPolygon reports whether p lies inside ring using ray casting with
// the even-odd rule. The ring may be closed or open. Rings with fewer than
// three points contain nothing. Points on an edge may go either way.
func PointInPolygon(p model.Coordinate, ring model.Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	x, y := p.Longitude, p.Latitude
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Longitude, ring[i].Latitude
		xj, yj := ring[j].Longitude, ring[j].Latitude
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// PolygonCentroid returns the area-weighted centroid of ring. A degenerate
// ring (zero signed area) yields the mean of its vertices and an empty ring
// yields the zero coordinate.
func PolygonCentroid(ring model.Ring) model.Coordinate {
	n := len(ring)
	if n == 0 {
		return model.Coordinate{}
	}
	var area, cx, cy float64
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		cross := a.Longitude*b.Latitude - b.Longitude*a.Latitude
		area += cross
		cx += (a.Longitude + b.Longitude) * cross
		cy += (a.Latitude + b.Latitude) * cross
	}
	area /= 2
	if math.Abs(area) < 1e-12 {
		return meanOf(ring)
	}
	return model.Coordinate{
		Latitude:  cy / (6 * area),
		Longitude: cx / (6 * area),
	}
}

func meanOf(ring model.Ring) model.Coordinate {
	var lat, lon float64
	for _, c := range ring {
		lat += c.Latitude
		lon += c.Longitude
	}
	n := float64(len(ring))
	return model.Coordinate{Latitude: lat / n, Longitude: lon / n}
}

// PolygonBounds returns the south-west and north-east corners of the ring's
// axis-aligned bounding box. An empty ring yields two zero coordinates.
func PolygonBounds(ring model.Ring) (min, max model.Coordinate) {
	if len(ring) == 0 {
		return model.Coordinate{}, model.Coordinate{}
	}
	b := ToOrbRing(ring).Bound()
	return fromPoint(b.Min), fromPoint(b.Max)
}

// ToOrbRing converts a ring to its orb representation (lon, lat order).
func ToOrbRing(ring model.Ring) orb.Ring {
	out := make(orb.Ring, len(ring))
	for i, c := range ring {
		out[i] = orb.Point{c.Longitude, c.Latitude}
	}
	return out
}

// FromOrbRing converts an orb ring back to coordinates.
func FromOrbRing(ring orb.Ring) model.Ring {
	out := make(model.Ring, len(ring))
	for i, p := range ring {
		out[i] = fromPoint(p)
	}
	return out
}

func fromPoint(p orb.Point) model.Coordinate {
	return model.Coordinate{Latitude: p.Lat(), Longitude: p.Lon()}
}
