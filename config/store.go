package config

import "fmt"

// StoreConfig selects the data source.
type StoreConfig struct {
	// Driver is "postgres" or "fixture".
	Driver      string `json:"driver"`
	DatabaseURL string `json:"database_url"`
	FixturePath string `json:"fixture_path"`
	// HistoryLimit caps the completed jobs read for duration estimates.
	HistoryLimit int `json:"history_limit"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "postgres"
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = 500
	}
}

func (c StoreConfig) Validate() error {
	switch c.Driver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required for the postgres driver")
		}
	case "fixture":
		if c.FixturePath == "" {
			return fmt.Errorf("fixture_path is required for the fixture driver")
		}
	default:
		return fmt.Errorf("unknown driver %s", c.Driver)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be >= 0")
	}
	return nil
}
