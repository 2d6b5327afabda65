// Package routing provides driving-distance providers for the technician
// ranker: an OSRM HTTP client and a Redis read-through cache.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kwikdrytn/kwikdry-sub000/core/distance"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

const (
	metersPerMile = 1609.344
	// DefaultBaseURL is the public OSRM demo server.
	DefaultBaseURL = "https://router.project-osrm.org"
)

// ErrNoRoute is returned when the routing engine finds no route.
var ErrNoRoute = errors.New("routing: no route found")

// OSRMClient queries the OSRM route service.
type OSRMClient struct {
	baseURL string
	client  *http.Client
}

// Option configures an OSRMClient.
type Option func(*OSRMClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *OSRMClient) {
		if c != nil {
			o.client = c
		}
	}
}

// NewOSRMClient creates a client for the OSRM instance at baseURL. An empty
// baseURL selects DefaultBaseURL.
func NewOSRMClient(baseURL string, opts ...Option) *OSRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &OSRMClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route returns the driving distance in miles and duration in minutes.
func (c *OSRMClient) Route(ctx context.Context, from, to model.Coordinate) (distance.Route, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		c.baseURL, from.Longitude, from.Latitude, to.Longitude, to.Latitude)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return distance.Route{}, fmt.Errorf("routing: failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return distance.Route{}, fmt.Errorf("routing: failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return distance.Route{}, fmt.Errorf("routing: failed to read response: %w", err)
	}
	var out osrmResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return distance.Route{}, fmt.Errorf("routing: unexpected status code: %d, body: %s", resp.StatusCode, body)
		}
		return distance.Route{}, fmt.Errorf("routing: failed to decode response: %w", err)
	}
	if out.Code == "NoRoute" || (out.Code == "Ok" && len(out.Routes) == 0) {
		return distance.Route{}, ErrNoRoute
	}
	if resp.StatusCode != http.StatusOK || out.Code != "Ok" {
		return distance.Route{}, fmt.Errorf("routing: %d %s: %s", resp.StatusCode, out.Code, out.Message)
	}
	r := out.Routes[0]
	return distance.Route{Miles: r.Distance / metersPerMile, Minutes: r.Duration / 60}, nil
}
