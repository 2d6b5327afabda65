package model

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
}

// Ring is an ordered sequence of coordinates describing a polygon outline.
// Rings read from GeoJSON are closed (first == last) but callers must not
// rely on it.
type Ring []Coordinate

// Closed reports whether the first and last points are identical.
func (r Ring) Closed() bool {
	return len(r) > 1 && r[0] == r[len(r)-1]
}

// Valid reports whether the ring holds at least three distinct points plus
// the closing point.
func (r Ring) Valid() bool {
	return len(r) >= 4 && r.Closed()
}

// BoundaryKind distinguishes single polygons from multipolygons.
type BoundaryKind string

const (
	BoundaryPolygon      BoundaryKind = "polygon"
	BoundaryMultiPolygon BoundaryKind = "multipolygon"
)

// Boundary is the outline of a service zone. A polygon holds exactly one
// ring, a multipolygon holds one outer ring per member polygon.
type Boundary struct {
	Kind  BoundaryKind `json:"kind" yaml:"kind"`
	Rings []Ring       `json:"rings" yaml:"rings"`
}

// First returns the ring used for containment tests, or nil.
func (b *Boundary) First() Ring {
	if b == nil || len(b.Rings) == 0 {
		return nil
	}
	return b.Rings[0]
}

// ServiceZone is a named geographic service area.
type ServiceZone struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Color       string    `json:"color,omitempty" yaml:"color"`
	Boundary    *Boundary `json:"boundary,omitempty" yaml:"boundary"`
	PostalCodes []string  `json:"postal_codes,omitempty" yaml:"postal_codes"`
}
