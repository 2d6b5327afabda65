package metrics

import "fmt"

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults fills empty fields.
func (c *Config) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9100"
	}
}

// Validate checks that an enabled Influx sink is fully configured.
func (c Config) Validate() error {
	if !c.InfluxEnabled {
		return nil
	}
	if c.InfluxURL == "" || c.InfluxOrg == "" || c.InfluxBucket == "" {
		return fmt.Errorf("metrics: influx_url, influx_org and influx_bucket are required when influx is enabled")
	}
	return nil
}
