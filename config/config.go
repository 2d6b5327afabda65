package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kwikdrytn/kwikdry-sub000/core/assembler"
	"github.com/kwikdrytn/kwikdry-sub000/core/metrics"
)

type Config struct {
	Policy    PolicyConfig    `json:"policy"`
	Routing   RoutingConfig   `json:"routing"`
	Geocode   GeocodeConfig   `json:"geocode"`
	Reasoning ReasoningConfig `json:"reasoning"`
	Store     StoreConfig     `json:"store"`
	Metrics   metrics.Config  `json:"metrics"`
	Logging   LoggingConfig   `json:"logging"`
	Server    ServerConfig    `json:"server"`
}

// Load reads the configuration file at path, applies K_ prefixed
// environment overrides and validates the result. An empty path loads
// defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides, K_SECTION__FIELD maps to section.field
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Policy.SetDefaults()
	c.Routing.SetDefaults()
	c.Geocode.SetDefaults()
	c.Reasoning.SetDefaults()
	c.Store.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
	c.Server.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	validators := []struct {
		name string
		fn   func() error
	}{
		{"policy", c.Policy.Validate},
		{"routing", c.Routing.Validate},
		{"reasoning", c.Reasoning.Validate},
		{"store", c.Store.Validate},
		{"metrics", c.Metrics.Validate},
		{"logging", c.Logging.Validate},
	}
	for _, v := range validators {
		if err := v.fn(); err != nil {
			return fmt.Errorf("%s: %w", v.name, err)
		}
	}
	return nil
}

// AssemblerPolicy combines the policy section with the store history limit.
func (c Config) AssemblerPolicy() (assembler.Policy, error) {
	p, err := c.Policy.ToPolicy()
	if err != nil {
		return p, err
	}
	p.HistoryLimit = c.Store.HistoryLimit
	return p, nil
}
