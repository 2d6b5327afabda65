package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LoggingConfig defines log verbosity and the ranking audit trail.
type LoggingConfig struct {
	// Level is a zerolog level name.
	Level string `json:"level"`
	// AuditPath is the JSON lines file receiving one record per ranking.
	// Empty disables the audit trail.
	AuditPath string `json:"audit_path"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level name.
func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("unknown level %s", c.Level)
	}
	return nil
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr"`
	// AuditToken protects the audit endpoint when set.
	AuditToken string `json:"audit_token"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
