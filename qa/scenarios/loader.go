package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kwikdrytn/kwikdry-sub000/core/model"
	"github.com/kwikdrytn/kwikdry-sub000/infra/store"
)

// Expected lists the checked outcome of a scenario. Empty fields are not
// checked.
type Expected struct {
	State           string   `yaml:"state"`
	FailureReason   string   `yaml:"failure_reason,omitempty"`
	Zone            string   `yaml:"zone,omitempty"`
	Anchor          string   `yaml:"anchor,omitempty"`
	Shortlist       []string `yaml:"shortlist,omitempty"`
	DurationMinutes int      `yaml:"duration_minutes,omitempty"`
	DurationSource  string   `yaml:"duration_source,omitempty"`
	// Technicians is the technician of each accepted suggestion, in order.
	Technicians []string `yaml:"technicians,omitempty"`
	// Slots are "YYYY-MM-DD HH:MM-HH:MM" strings of accepted suggestions.
	Slots          []string `yaml:"slots,omitempty"`
	Dropped        []string `yaml:"dropped,omitempty"`
	MinSuggestions int      `yaml:"min_suggestions,omitempty"`
	NoSuggestions  bool     `yaml:"no_suggestions,omitempty"`
	// Warnings are substrings that must appear in some warning.
	Warnings []string `yaml:"warnings,omitempty"`
}

// Scenario is one ranking run against an in-memory data set.
type Scenario struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description,omitempty"`
	Today       model.Date          `yaml:"today"`
	Data        store.Fixture       `yaml:"data"`
	Request     model.NewJobRequest `yaml:"request"`
	// Reasoner is "scripted" (default), answering Response verbatim, or
	// "heuristic".
	Reasoner string   `yaml:"reasoner,omitempty"`
	Response string   `yaml:"response,omitempty"`
	Expected Expected `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := sc.Data.Resolve(); err != nil {
		return nil, err
	}
	if sc.Today.IsZero() {
		return nil, fmt.Errorf("scenario %s: today is required", sc.Name)
	}
	switch sc.Reasoner {
	case "", "scripted", "heuristic":
	default:
		return nil, fmt.Errorf("scenario %s: unknown reasoner %s", sc.Name, sc.Reasoner)
	}
	return &sc, nil
}
