package config

import (
	"fmt"
	"time"

	"github.com/kwikdrytn/kwikdry-sub000/infra/geocode"
	"github.com/kwikdrytn/kwikdry-sub000/infra/routing"
)

// RoutingConfig selects the driving distance provider.
type RoutingConfig struct {
	// Provider is "osrm" or "none". With "none" ranking uses straight-line
	// distances only.
	Provider string      `json:"provider"`
	BaseURL  string      `json:"base_url"`
	Cache    CacheConfig `json:"cache"`
}

// CacheConfig configures the Redis route cache.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Addr       string `json:"addr"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

func (c *RoutingConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "osrm"
	}
	if c.BaseURL == "" {
		c.BaseURL = routing.DefaultBaseURL
	}
	if c.Cache.Addr == "" {
		c.Cache.Addr = "localhost:6379"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = int(routing.DefaultTTL / time.Second)
	}
}

func (c RoutingConfig) Validate() error {
	if c.Provider != "osrm" && c.Provider != "none" {
		return fmt.Errorf("unknown provider %s", c.Provider)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds must be >= 0")
	}
	return nil
}

// GeocodeConfig configures the Nominatim client used by ingestion.
type GeocodeConfig struct {
	BaseURL          string `json:"base_url"`
	UserAgent        string `json:"user_agent"`
	CountryCodes     string `json:"country_codes"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
	MinIntervalMilli int    `json:"min_interval_ms"`
}

func (c *GeocodeConfig) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = geocode.DefaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = geocode.DefaultUserAgent
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
	if c.MinIntervalMilli == 0 {
		c.MinIntervalMilli = 1000
	}
}

// Client builds the geocoding client.
func (c GeocodeConfig) Client() *geocode.NominatimClient {
	return geocode.NewNominatimClient(geocode.Config{
		BaseURL:      c.BaseURL,
		UserAgent:    c.UserAgent,
		CountryCodes: c.CountryCodes,
		Timeout:      time.Duration(c.TimeoutSeconds) * time.Second,
		MinInterval:  time.Duration(c.MinIntervalMilli) * time.Millisecond,
	})
}
