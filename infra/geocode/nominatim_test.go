package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

func newServer(t *testing.T, h http.HandlerFunc) *NominatimClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewNominatimClient(Config{BaseURL: srv.URL, UserAgent: "test-agent", CountryCodes: "us"})
}

func TestGeocode(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		q := r.URL.Query()
		assert.Equal(t, "jsonv2", q.Get("format"))
		assert.Equal(t, "us", q.Get("countrycodes"))
		if q.Get("q") == "nowhere" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		assert.Equal(t, "1600 Broadway, Denver", q.Get("q"))
		_, _ = w.Write([]byte(`[{"lat":"39.7420","lon":"-104.9870"}]`))
	})

	got, err := c.Geocode(context.Background(), " 1600 Broadway, Denver ")
	require.NoError(t, err)
	assert.Equal(t, &model.Coordinate{Latitude: 39.742, Longitude: -104.987}, got)

	got, err = c.Geocode(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.Geocode(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGeocodeErrors(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "bad" {
			_, _ = w.Write([]byte(`[{"lat":"north","lon":"1"}]`))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.Geocode(context.Background(), "bad")
	assert.ErrorContains(t, err, "bad latitude")
	_, err = c.Geocode(context.Background(), "busy")
	assert.ErrorContains(t, err, "429")
}

func TestPostalCodeBoundary(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("polygon_geojson"))
		switch q.Get("postalcode") {
		case "80202":
			_, _ = w.Write([]byte(`[{"lat":"39.75","lon":"-105","geojson":{"type":"Polygon","coordinates":[[[-105,39.7],[-104.9,39.7],[-104.9,39.8],[-105,39.7]]]}}]`))
		case "80203":
			_, _ = w.Write([]byte(`[{"lat":"39.73","lon":"-104.98","geojson":{"type":"Point","coordinates":[-104.98,39.73]}}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})

	b, err := c.PostalCodeBoundary(context.Background(), "80202")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, model.BoundaryPolygon, b.Kind)
	require.Len(t, b.Rings, 1)
	assert.Equal(t, model.Coordinate{Latitude: 39.7, Longitude: -105}, b.Rings[0][0])

	b, err = c.PostalCodeBoundary(context.Background(), "80203")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = c.PostalCodeBoundary(context.Background(), "00000")
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestMinInterval(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	c := NewNominatimClient(Config{BaseURL: srv.URL, MinInterval: 100 * time.Millisecond})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Geocode(context.Background(), "x")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Geocode(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
