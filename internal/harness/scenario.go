package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/farsight/internal/transition"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Experiment is the path to an experiment YAML file, relative to the
	// scenario file once loaded.
	Experiment string `yaml:"experiment"`

	// Mode overrides the approval mode of the experiment when set.
	Mode string `yaml:"mode,omitempty"`

	// Assertions validate the stored run.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Success is the expected verification outcome (equilibrium).
	Success *bool `yaml:"success,omitempty"`

	// From and To select a matrix entry (transition).
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`

	// Prob is the expected transition probability (transition).
	Prob *float64 `yaml:"prob,omitempty"`

	// State and Player select a value cell (value).
	State  string `yaml:"state,omitempty"`
	Player string `yaml:"player,omitempty"`

	// Value is the expected value function entry (value).
	Value *float64 `yaml:"value,omitempty"`

	// Tolerance bounds numeric comparisons. Defaults to DefaultTolerance.
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// Assertion type constants.
const (
	AssertEquilibrium       = "equilibrium"
	AssertIdentity          = "identity"
	AssertTransition        = "transition"
	AssertValue             = "value"
	AssertPayoffEqualsValue = "payoff_equals_value"
)

// DefaultTolerance is used by numeric assertions without a tolerance.
const DefaultTolerance = 1e-9

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict fields catch typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Experiment != "" && !filepath.IsAbs(scenario.Experiment) {
		scenario.Experiment = filepath.Join(filepath.Dir(path), scenario.Experiment)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Experiment == "" {
		return fmt.Errorf("experiment is required")
	}
	if _, err := os.Stat(s.Experiment); os.IsNotExist(err) {
		return fmt.Errorf("experiment file not found: %s", s.Experiment)
	}

	if s.Mode != "" {
		if _, err := transition.ParseMode(s.Mode); err != nil {
			return fmt.Errorf("mode: %w", err)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
	}

	switch a.Type {
	case AssertEquilibrium:
		if a.Success == nil {
			return fmt.Errorf("assertions[%d]: success is required for equilibrium", index)
		}
	case AssertIdentity, AssertPayoffEqualsValue:
	case AssertTransition:
		if a.From == "" || a.To == "" {
			return fmt.Errorf("assertions[%d]: from and to are required for transition", index)
		}
		if a.Prob == nil {
			return fmt.Errorf("assertions[%d]: prob is required for transition", index)
		}
	case AssertValue:
		if a.State == "" || a.Player == "" {
			return fmt.Errorf("assertions[%d]: state and player are required for value", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for value", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
