package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/farsight/internal/game"
)

const validYAML = `
name: weak_governance
description: three countries, weak governance
base_temp: {W: 21.5, T: 14.0, C: 11.5}
delta_temp: {W: 3, T: 3, C: 3}
ideal_temp: {W: 13, T: 13, C: 13}
m_damage: {W: 1, T: 1, C: 1}
power: {W: 0.25, T: 0.25, C: 0.5}
discounting: 0.99
power_rule: weak_governance
strategy_table: strategies/weak.cue
`

func TestParseAppliesDefaults(t *testing.T) {
	exp, err := Parse([]byte(validYAML), "/experiments")
	require.NoError(t, err)

	assert.Equal(t, "weak_governance", exp.Name)
	assert.Equal(t, []string{"W", "T", "C"}, exp.Players)
	assert.Equal(t, "unanimity", exp.Mode)
	assert.Equal(t, filepath.Join("/experiments", "strategies/weak.cue"), exp.StrategyPath())
	assert.Equal(t, game.UniformProtocol(exp.GamePlayers()), exp.GameProtocol())

	names := make([]string, len(exp.States))
	for i, s := range exp.States {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"( )", "(TC)", "(WC)", "(WT)", "(WTC)"}, names)
	assert.Equal(t, [][]string{{"T"}, {"W", "C"}}, exp.States[2].Coalitions)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(validYAML+"discount: 0.5\n"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		want  string
	}{
		{"bad discount", "discounting: 1\n", "discounting must be in (0,1)"},
		{"bad mode", "mode: plurality\n", "invalid mode"},
		{"bad rule", "power_rule: anarchy\n", "invalid power rule"},
		{"threshold without min power", "power_rule: power_threshold\n", "min_power is required"},
		{"unknown protocol player", "protocol: {W: 0.5, T: 0.5, Z: 0}\n", `protocol: unknown player "Z"`},
		{"protocol sum", "protocol: {W: 0.5, T: 0.5, C: 0.5}\n", "protocol:"},
		{"unknown state player", "states: [{name: '( )', coalitions: [[W], [T], [Z]]}]\n", `unknown player "Z"`},
		{"player twice", "states: [{name: '(WT)', coalitions: [[W, T], [T, C]]}]\n", "more than one coalition"},
		{"uncovered player", "states: [{name: '(WT)', coalitions: [[W, T]]}]\n", "must cover every player"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(overrideYAML(tt.extra)), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, game.IsConfigurationError(err))
		})
	}
}

// overrideYAML replaces top-level keys of validYAML with the keys in extra.
func overrideYAML(extra string) string {
	replaced := map[string]bool{}
	for _, line := range strings.Split(extra, "\n") {
		if key, _, ok := strings.Cut(line, ":"); ok {
			replaced[key] = true
		}
	}
	var b strings.Builder
	for _, line := range strings.Split(validYAML, "\n") {
		if key, _, ok := strings.Cut(line, ":"); ok && replaced[key] {
			continue
		}
		b.WriteString(line + "\n")
	}
	return b.String() + extra
}

func TestValidateMissingPlayerParameter(t *testing.T) {
	_, err := Parse([]byte(overrideYAML("power: {W: 0.5, T: 0.5}\n")), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `power: missing value for player "C"`)
}

func TestDefaultStatesOnlyForThreePlayers(t *testing.T) {
	assert.Nil(t, DefaultStates([]string{"A", "B"}))
	assert.Len(t, DefaultStates([]string{"A", "B", "C"}), 5)

	yaml := `
name: pair
players: [A, B]
base_temp: {A: 20, B: 20}
delta_temp: {A: 1, B: 1}
ideal_temp: {A: 13, B: 13}
m_damage: {A: 1, B: 1}
power: {A: 0.5, B: 0.5}
discounting: 0.9
power_rule: weak_governance
strategy_table: pair.cue
`
	_, err := Parse([]byte(yaml), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "states are required")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	exp, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, exp.Dir)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParseEnv(t *testing.T) {
	t.Setenv("FARSIGHT_DB", "/tmp/results.db")
	t.Setenv("FARSIGHT_LOG_LEVEL", "debug")
	t.Setenv("FARSIGHT_FORMAT", "json")

	cfg, err := ParseEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/results.db", cfg.DB)
	assert.Equal(t, "json", cfg.Format)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = Env{LogLevel: "loud"}.SlogLevel()
	assert.Error(t, err)
}
