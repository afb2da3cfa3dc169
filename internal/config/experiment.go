// Package config reads experiment definitions and process settings.
//
// Experiments are YAML files describing the players, their climate
// parameters, the coalition structures (states) of the game, the approval
// rule and the strategy table to evaluate. Process settings come from the
// environment.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/farsight/internal/game"
	"github.com/roach88/farsight/internal/payoff"
	"github.com/roach88/farsight/internal/transition"
)

// Experiment is one experiment definition.
type Experiment struct {
	// Name identifies the experiment in reports and stored runs.
	Name string `yaml:"name"`

	// Description is free text shown in reports.
	Description string `yaml:"description,omitempty"`

	// Players lists player labels in table order. Defaults to DefaultPlayers.
	Players []string `yaml:"players,omitempty"`

	BaseTemp  map[string]float64 `yaml:"base_temp"`
	DeltaTemp map[string]float64 `yaml:"delta_temp"`
	IdealTemp map[string]float64 `yaml:"ideal_temp"`
	MDamage   map[string]float64 `yaml:"m_damage"`
	Power     map[string]float64 `yaml:"power"`

	// Protocol gives proposer selection probabilities. Uniform if omitted.
	Protocol map[string]float64 `yaml:"protocol,omitempty"`

	// Discounting is the discount factor γ in (0,1).
	Discounting float64 `yaml:"discounting"`

	// PowerRule is power_threshold or weak_governance.
	PowerRule string `yaml:"power_rule"`

	// MinPower is the deployment threshold of the power_threshold rule.
	MinPower *float64 `yaml:"min_power,omitempty"`

	// Mode is unanimity (default) or majority.
	Mode string `yaml:"mode,omitempty"`

	// StrategyTable is the CUE strategy file, relative to the experiment file.
	StrategyTable string `yaml:"strategy_table"`

	// States lists the coalition structures. Defaults to DefaultStates.
	States []StateSpec `yaml:"states,omitempty"`

	// Dir is the directory the experiment was loaded from.
	Dir string `yaml:"-"`
}

// StateSpec is one coalition structure: a partition of the players.
type StateSpec struct {
	Name       string     `yaml:"name"`
	Coalitions [][]string `yaml:"coalitions"`
}

// DefaultPlayers are the players of the reference three-country game.
func DefaultPlayers() []string {
	return []string{"W", "T", "C"}
}

// DefaultStates returns the five coalition structures of a three-player game
// in the order ( ), (bc), (ac), (ab), (abc). It returns nil for any other
// number of players.
func DefaultStates(players []string) []StateSpec {
	if len(players) != 3 {
		return nil
	}
	a, b, c := players[0], players[1], players[2]
	name := func(ps ...string) string { return "(" + strings.Join(ps, "") + ")" }
	return []StateSpec{
		{Name: "( )", Coalitions: [][]string{{a}, {b}, {c}}},
		{Name: name(b, c), Coalitions: [][]string{{a}, {b, c}}},
		{Name: name(a, c), Coalitions: [][]string{{b}, {a, c}}},
		{Name: name(a, b), Coalitions: [][]string{{c}, {a, b}}},
		{Name: name(a, b, c), Coalitions: [][]string{{a, b, c}}},
	}
}

// Load reads and validates an experiment file.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment file: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes and validates an experiment. dir resolves relative paths.
func Parse(data []byte, dir string) (*Experiment, error) {
	var exp Experiment
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&exp); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	exp.Dir = dir

	exp.applyDefaults()
	if err := exp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid experiment: %w", err)
	}
	return &exp, nil
}

func (e *Experiment) applyDefaults() {
	if len(e.Players) == 0 {
		e.Players = DefaultPlayers()
	}
	for i, p := range e.Players {
		e.Players[i] = string(game.NewPlayer(p))
	}
	if len(e.States) == 0 {
		e.States = DefaultStates(e.Players)
	}
	if e.Mode == "" {
		e.Mode = transition.Unanimity.String()
	}
}

// Validate reports the first problem found as a configuration error.
func (e *Experiment) Validate() error {
	fail := func(format string, args ...any) error {
		return game.NewConfigurationError(fmt.Sprintf(format, args...))
	}

	if e.Name == "" {
		return fail("name is required")
	}
	if len(e.Players) == 0 {
		return fail("players list is required and must be non-empty")
	}
	known := make(map[string]bool, len(e.Players))
	for _, p := range e.Players {
		if p == "" {
			return fail("player labels must be non-empty")
		}
		if known[p] {
			return fail("duplicate player %q", p)
		}
		known[p] = true
	}

	params := []struct {
		field  string
		values map[string]float64
	}{
		{"base_temp", e.BaseTemp},
		{"delta_temp", e.DeltaTemp},
		{"ideal_temp", e.IdealTemp},
		{"m_damage", e.MDamage},
		{"power", e.Power},
	}
	for _, param := range params {
		for _, p := range e.Players {
			if _, ok := param.values[p]; !ok {
				return fail("%s: missing value for player %q", param.field, p)
			}
		}
		for p := range param.values {
			if !known[p] {
				return fail("%s: unknown player %q", param.field, p)
			}
		}
	}

	if !(e.Discounting > 0 && e.Discounting < 1) {
		return fail("discounting must be in (0,1), got %v", e.Discounting)
	}

	rule, err := payoff.ParsePowerRule(e.PowerRule)
	if err != nil {
		return err
	}
	if rule == payoff.PowerThreshold && e.MinPower == nil {
		return fail("min_power is required for the power_threshold rule")
	}

	if _, err := transition.ParseMode(e.Mode); err != nil {
		return err
	}

	if e.StrategyTable == "" {
		return fail("strategy_table is required")
	}

	if len(e.Protocol) > 0 {
		for p := range e.Protocol {
			if !known[p] {
				return fail("protocol: unknown player %q", p)
			}
		}
		if err := e.GameProtocol().Validate(e.GamePlayers()); err != nil {
			return fail("protocol: %v", err)
		}
	}

	if len(e.States) == 0 {
		return fail("states are required for games that do not have exactly three players")
	}
	names := make(map[string]bool, len(e.States))
	for i, s := range e.States {
		if s.Name == "" {
			return fail("states[%d]: name is required", i)
		}
		if names[s.Name] {
			return fail("states[%d]: duplicate state %q", i, s.Name)
		}
		names[s.Name] = true

		seen := make(map[string]bool, len(e.Players))
		for _, coalition := range s.Coalitions {
			if len(coalition) == 0 {
				return fail("state %s: empty coalition", s.Name)
			}
			for _, p := range coalition {
				if !known[p] {
					return fail("state %s: unknown player %q", s.Name, p)
				}
				if seen[p] {
					return fail("state %s: player %q appears in more than one coalition", s.Name, p)
				}
				seen[p] = true
			}
		}
		if len(seen) != len(e.Players) {
			return fail("state %s: coalitions must cover every player", s.Name)
		}
	}

	return nil
}

// GamePlayers returns the players as game players.
func (e *Experiment) GamePlayers() []game.Player {
	out := make([]game.Player, len(e.Players))
	for i, p := range e.Players {
		out[i] = game.Player(p)
	}
	return out
}

// GameProtocol returns the configured protocol, or the uniform protocol.
func (e *Experiment) GameProtocol() game.Protocol {
	if len(e.Protocol) == 0 {
		return game.UniformProtocol(e.GamePlayers())
	}
	out := make(game.Protocol, len(e.Protocol))
	for p, v := range e.Protocol {
		out[game.NewPlayer(p)] = v
	}
	return out
}

// StrategyPath resolves the strategy table path.
func (e *Experiment) StrategyPath() string {
	if filepath.IsAbs(e.StrategyTable) || e.Dir == "" {
		return e.StrategyTable
	}
	return filepath.Join(e.Dir, e.StrategyTable)
}
