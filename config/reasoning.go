package config

import (
	"fmt"
	"os"

	"github.com/kwikdrytn/kwikdry-sub000/infra/reasoning"
)

// ReasoningConfig selects the external ranking service.
type ReasoningConfig struct {
	// Provider is "gemini" or "heuristic".
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	APIKey      string  `json:"api_key"`
	Temperature float32 `json:"temperature"`
}

func (c *ReasoningConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "gemini"
	}
	if c.Model == "" {
		c.Model = reasoning.DefaultModel
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
}

func (c ReasoningConfig) Validate() error {
	switch c.Provider {
	case "heuristic":
		return nil
	case "gemini":
		if c.APIKey == "" {
			return fmt.Errorf("api_key or GEMINI_API_KEY is required for the gemini provider")
		}
		return nil
	default:
		return fmt.Errorf("unknown provider %s", c.Provider)
	}
}

// Gemini returns the client configuration.
func (c ReasoningConfig) Gemini() reasoning.GeminiConfig {
	return reasoning.GeminiConfig{APIKey: c.APIKey, Model: c.Model, Temperature: c.Temperature}
}
