// Package geocode resolves addresses and postal code outlines through a
// Nominatim compatible search API. It is used by ingestion only.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kwikdrytn/kwikdry-sub000/core/geo"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

const (
	// DefaultBaseURL is the public OpenStreetMap Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	// DefaultUserAgent identifies the client as the usage policy requires.
	DefaultUserAgent = "kwikdry-dispatch/1.0"
)

// Config configures a NominatimClient.
type Config struct {
	BaseURL   string
	UserAgent string
	// CountryCodes restricts searches, e.g. "us".
	CountryCodes string
	Timeout      time.Duration
	// MinInterval spaces consecutive requests.
	MinInterval time.Duration
}

// NominatimClient implements ingest.Geocoder and ingest.BoundaryProvider.
type NominatimClient struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
}

// NewNominatimClient creates a client. Zero fields take the defaults.
func NewNominatimClient(cfg Config) *NominatimClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return &NominatimClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

type place struct {
	Lat     string          `json:"lat"`
	Lon     string          `json:"lon"`
	GeoJSON json.RawMessage `json:"geojson"`
}

// Geocode returns the coordinate of the best match, nil when nothing matched.
func (c *NominatimClient) Geocode(ctx context.Context, address string) (*model.Coordinate, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}
	q := url.Values{"q": {address}}
	places, err := c.search(ctx, q)
	if err != nil || len(places) == 0 {
		return nil, err
	}
	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: bad latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: bad longitude %q: %w", places[0].Lon, err)
	}
	return &model.Coordinate{Latitude: lat, Longitude: lon}, nil
}

// PostalCodeBoundary returns the outline of a postal code, nil when the code
// is unknown or only a point is available.
func (c *NominatimClient) PostalCodeBoundary(ctx context.Context, postalCode string) (*model.Boundary, error) {
	postalCode = strings.TrimSpace(postalCode)
	if postalCode == "" {
		return nil, nil
	}
	q := url.Values{"postalcode": {postalCode}, "polygon_geojson": {"1"}}
	places, err := c.search(ctx, q)
	if err != nil || len(places) == 0 || len(places[0].GeoJSON) == 0 {
		return nil, err
	}
	b, err := geo.ParseBoundaryGeoJSON(places[0].GeoJSON)
	if errors.Is(err, geo.ErrUnsupportedGeometry) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("geocode: boundary for %s: %w", postalCode, err)
	}
	return b, nil
}

func (c *NominatimClient) search(ctx context.Context, q url.Values) ([]place, error) {
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	if c.cfg.CountryCodes != "" {
		q.Set("countrycodes", c.cfg.CountryCodes)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: failed to send request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("geocode: failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	var places []place
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("geocode: failed to decode response: %w", err)
	}
	return places, nil
}

