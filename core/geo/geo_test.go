package geo

import (
	"testing"

	"github.com/kwikdrytn/kwikdry-sub000/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func c(lat, lon float64) model.Coordinate { return model.Coordinate{Latitude: lat, Longitude: lon} }

var square = model.Ring{c(0, 0), c(0, 10), c(10, 10), c(10, 0), c(0, 0)}

func TestDistanceIdentityAndSymmetry(t *testing.T) {
	pts := []model.Coordinate{c(0, 0), c(39.7392, -104.9903), c(-33.86, 151.21), c(89.9, 179.9)}
	for _, a := range pts {
		assert.Equal(t, 0.0, Distance(a, a))
		for _, b := range pts {
			assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
		}
	}
}

func TestDistanceKnownValue(t *testing.T) {
	denver := c(39.7392, -104.9903)
	boulder := c(40.0150, -105.2705)
	assert.InDelta(t, 24.3, Distance(denver, boulder), 0.5)
	// one degree of latitude is roughly 69 miles
	assert.InDelta(t, 69.1, Distance(c(0, 0), c(1, 0)), 0.1)
}

func TestPointInPolygonSquare(t *testing.T) {
	assert.True(t, PointInPolygon(c(5, 5), square))
	assert.False(t, PointInPolygon(c(15, 15), square))
	assert.False(t, PointInPolygon(c(-1, 5), square))
}

func TestPointInPolygonOpenRing(t *testing.T) {
	open := square[:4]
	assert.True(t, PointInPolygon(c(5, 5), open))
	assert.False(t, PointInPolygon(c(15, 15), open))
}

func TestPointInPolygonDegenerate(t *testing.T) {
	assert.False(t, PointInPolygon(c(0, 0), nil))
	assert.False(t, PointInPolygon(c(0.5, 0.5), model.Ring{c(0, 0), c(1, 1)}))
}

func TestPointInPolygonConcave(t *testing.T) {
	// U shape opening north
	u := model.Ring{c(0, 0), c(0, 3), c(3, 3), c(3, 2), c(1, 2), c(1, 1), c(3, 1), c(3, 0), c(0, 0)}
	assert.True(t, PointInPolygon(c(0.5, 1.5), u))
	assert.False(t, PointInPolygon(c(2, 1.5), u))
	assert.True(t, PointInPolygon(c(2, 2.5), u))
}

func TestPolygonCentroidSquare(t *testing.T) {
	got := PolygonCentroid(square)
	assert.InDelta(t, 5.0, got.Latitude, 1e-9)
	assert.InDelta(t, 5.0, got.Longitude, 1e-9)

	// winding order does not matter
	rev := make(model.Ring, len(square))
	for i := range square {
		rev[i] = square[len(square)-1-i]
	}
	got = PolygonCentroid(rev)
	assert.InDelta(t, 5.0, got.Latitude, 1e-9)
	assert.InDelta(t, 5.0, got.Longitude, 1e-9)
}

func TestPolygonCentroidDegenerate(t *testing.T) {
	line := model.Ring{c(0, 0), c(1, 1), c(2, 2)}
	got := PolygonCentroid(line)
	assert.InDelta(t, 1.0, got.Latitude, 1e-9)
	assert.InDelta(t, 1.0, got.Longitude, 1e-9)
	assert.Equal(t, model.Coordinate{}, PolygonCentroid(nil))
}

func TestPolygonBounds(t *testing.T) {
	ring := model.Ring{c(1, -3), c(4, 2), c(-2, 5), c(1, -3)}
	min, max := PolygonBounds(ring)
	assert.Equal(t, c(-2, -3), min)
	assert.Equal(t, c(4, 5), max)

	min, max = PolygonBounds(nil)
	assert.Equal(t, model.Coordinate{}, min)
	assert.Equal(t, model.Coordinate{}, max)
}

func TestParseBoundaryGeoJSON(t *testing.T) {
	poly := `{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]],[[2,2],[3,2],[3,3],[2,2]]]}`
	b, err := ParseBoundaryGeoJSON([]byte(poly))
	require.NoError(t, err)
	assert.Equal(t, model.BoundaryPolygon, b.Kind)
	require.Len(t, b.Rings, 1)
	assert.Len(t, b.First(), 5)
	assert.True(t, b.First().Valid())
	assert.True(t, PointInPolygon(c(5, 5), b.First()))

	multi := `{"type":"MultiPolygon","coordinates":[
		[[[0,0],[1,0],[1,1],[0,0]]],
		[[[5,5],[6,5],[6,6],[5,5]]]
	]}`
	b, err = ParseBoundaryGeoJSON([]byte(multi))
	require.NoError(t, err)
	assert.Equal(t, model.BoundaryMultiPolygon, b.Kind)
	require.Len(t, b.Rings, 2)
	assert.Equal(t, c(5, 5), b.Rings[1][0])

	_, err = ParseBoundaryGeoJSON([]byte(`{"type":"Point","coordinates":[1,2]}`))
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
	_, err = ParseBoundaryGeoJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestBoundaryGeoJSONRoundTrip(t *testing.T) {
	in := &model.Boundary{Kind: model.BoundaryMultiPolygon, Rings: []model.Ring{square, square}}
	data, err := BoundaryGeoJSON(in)
	require.NoError(t, err)
	out, err := ParseBoundaryGeoJSON(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = BoundaryGeoJSON(nil)
	assert.Error(t, err)
}
