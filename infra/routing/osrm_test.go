package routing

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

var (
	home = model.Coordinate{Latitude: 39.75, Longitude: -104.99}
	site = model.Coordinate{Latitude: 40.01, Longitude: -105.27}
)

func TestOSRMRoute(t *testing.T) {
	var path, query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, query = r.URL.Path, r.URL.RawQuery
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":16093.44,"duration":1200}]}`))
	}))
	defer srv.Close()

	c := NewOSRMClient(srv.URL + "/")
	r, err := c.Route(context.Background(), home, site)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, r.Miles, 1e-9)
	assert.InDelta(t, 20.0, r.Minutes, 1e-9)
	assert.Equal(t, "/route/v1/driving/-104.990000,39.750000;-105.270000,40.010000", path)
	assert.Equal(t, "overview=false", query)
}

func TestOSRMNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"NoRoute","message":"Impossible route between points"}`))
	}))
	defer srv.Close()

	_, err := NewOSRMClient(srv.URL).Route(context.Background(), home, site)
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestOSRMErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := NewOSRMClient(srv.URL).Route(context.Background(), home, site)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = NewOSRMClient(slow.URL, WithHTTPClient(&http.Client{})).Route(ctx, home, site)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
