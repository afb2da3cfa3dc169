package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// pairExperiment is the two-country example shipped with the repository.
var pairExperiment = filepath.Join("..", "..", "examples", "experiments", "pair.yaml")

// failingStrategy keeps A in the pair although walking out pays more.
const failingStrategy = `strategy: {
	"( )": {
		proposals: {
			A: {"( )": 1}
			B: {"(AB)": 1}
		}
		acceptances: {
			A: B: "(AB)": 0
			B: A: "(AB)": 1
		}
	}
	"(AB)": proposals: {
		A: {"(AB)": 1}
		B: {"(AB)": 1}
	}
}
`

const failingExperiment = `name: pair_stay
description: A never leaves the pair.
players: [A, B]
base_temp: {A: 20, B: 16}
delta_temp: {A: 1, B: 1}
ideal_temp: {A: 13, B: 13}
m_damage: {A: 1, B: 1}
power: {A: 0.5, B: 0.5}
discounting: 0.5
power_rule: weak_governance
strategy_table: stay.cue
states:
  - name: "( )"
    coalitions: [[A], [B]]
  - name: "(AB)"
    coalitions: [[A, B]]
`

// writeFailingExperiment writes an experiment whose equilibrium check fails
// and returns its path.
func writeFailingExperiment(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stay.cue"), []byte(failingStrategy), 0o644))
	path := filepath.Join(dir, "pair_stay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(failingExperiment), 0o644))
	return path
}

// execute runs the root command with a fresh database and no colors.
func execute(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("FARSIGHT_FORMAT", "text")
	t.Setenv("FARSIGHT_LOG_LEVEL", "warn")

	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--no-color", "--db", db}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "farsight.db")
}

// decodeResponse decodes a JSON envelope whose data is decoded into data.
func decodeResponse(t *testing.T, out string, data interface{}) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}
