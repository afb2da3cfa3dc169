package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/farsight/internal/store"
)

func scenarioPath(name string) string {
	return filepath.Join("..", "..", "examples", "scenarios", name)
}

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func ptr[T any](v T) *T { return &v }

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(scenarioPath("pair_walkout.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "pair_walkout", s.Name)
	assert.Equal(t, filepath.Join("..", "..", "examples", "experiments", "pair.yaml"), s.Experiment)
	require.Len(t, s.Assertions, 7)
	assert.Equal(t, AssertEquilibrium, s.Assertions[0].Type)
	assert.True(t, *s.Assertions[0].Success)
	assert.Equal(t, 0.5, *s.Assertions[2].Prob)
}

func TestLoadScenario_Errors(t *testing.T) {
	experiment, err := filepath.Abs(filepath.Join("..", "..", "examples", "experiments", "pair.yaml"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: d\nexperiment: " + experiment + "\nassertion: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			content: "description: d\nexperiment: " + experiment + "\nassertions: [{type: identity}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing experiment file",
			content: "name: x\ndescription: d\nexperiment: nope.yaml\nassertions: [{type: identity}]\n",
			wantErr: "experiment file not found",
		},
		{
			name:    "bad mode",
			content: "name: x\ndescription: d\nexperiment: " + experiment + "\nmode: plurality\nassertions: [{type: identity}]\n",
			wantErr: "mode:",
		},
		{
			name:    "no assertions",
			content: "name: x\ndescription: d\nexperiment: " + experiment + "\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown assertion",
			content: "name: x\ndescription: d\nexperiment: " + experiment + "\nassertions: [{type: trace_order}]\n",
			wantErr: `unknown assertion type "trace_order"`,
		},
		{
			name:    "transition without prob",
			content: "name: x\ndescription: d\nexperiment: " + experiment + "\nassertions: [{type: transition, from: a, to: b}]\n",
			wantErr: "prob is required",
		},
		{
			name:    "equilibrium without success",
			content: "name: x\ndescription: d\nexperiment: " + experiment + "\nassertions: [{type: equilibrium}]\n",
			wantErr: "success is required",
		},
		{
			name:    "negative tolerance",
			content: "name: x\ndescription: d\nexperiment: " + experiment + "\nassertions: [{type: identity, tolerance: -1}]\n",
			wantErr: "tolerance must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunPairScenarioGolden(t *testing.T) {
	s, err := LoadScenario(scenarioPath("pair_walkout.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "pair_walkout", result.Run.ID)
	assert.Equal(t, int64(1), result.Run.Seq)
}

func TestRunStatusQuoScenario(t *testing.T) {
	s, err := LoadScenario(scenarioPath("status_quo.yaml"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Run.Transitions, 25)
	assert.Len(t, result.Run.Values, 15)
}

func TestRunThreeCountryScenarios(t *testing.T) {
	for _, name := range []string{
		"weak_governance",
		"supplementary_with_unanimity",
		"supplementary_without_unanimity",
	} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(scenarioPath(name + ".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.True(t, result.Run.Success)
			assert.Len(t, result.Run.Transitions, 25)
		})
	}
}

func TestRunMajorityScenario(t *testing.T) {
	s, err := LoadScenario(scenarioPath("supplementary_without_unanimity.yaml"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "majority", result.Run.Mode)
	assert.Empty(t, result.Experiment.Transition.Warnings)
}

func TestRunPowerThresholdScenario(t *testing.T) {
	s, err := LoadScenario(scenarioPath("power_threshold.yaml"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "unanimity", result.Run.Mode)

	// (TC) holds two thirds of the power and is the only coalition that
	// never moves.
	for _, tp := range result.Run.Transitions {
		if tp.From == "(TC)" {
			want := 0.0
			if tp.To == "(TC)" {
				want = 1
			}
			assert.InDelta(t, want, tp.Prob, 1e-12, "%s -> %s", tp.From, tp.To)
		}
	}
}

func TestRunReportsFailedAssertions(t *testing.T) {
	s, err := LoadScenario(scenarioPath("pair_walkout.yaml"))
	require.NoError(t, err)
	s.Assertions = []Assertion{
		{Type: AssertIdentity},
		{Type: AssertTransition, From: "(AB)", To: "( )", Prob: ptr(0.25)},
		{Type: AssertEquilibrium, Success: ptr(false)},
		{Type: AssertValue, State: "(ABC)", Player: "A", Value: ptr(1.0)},
		{Type: AssertPayoffEqualsValue},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "Assertion failed: identity")
	assert.Contains(t, result.Errors[1], "Expected: P((AB), ( )) = 0.25")
	assert.Contains(t, result.Errors[1], "Actual: 0.5")
	assert.Contains(t, result.Errors[2], "success=true")
	assert.Contains(t, result.Errors[3], "no such state and player")
	assert.Contains(t, result.Errors[4], "Assertion failed: payoff_equals_value")
}

func TestRunMissingExperiment(t *testing.T) {
	_, err := Run(&Scenario{Name: "x", Experiment: "does-not-exist.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load experiment")
}

func TestEvaluateAssertions(t *testing.T) {
	run := store.Run{
		Success: true,
		Transitions: []store.TransitionProb{
			{From: "s", To: "s", Prob: 1},
			{From: "s", To: "t", Prob: 0},
			{From: "t", To: "s", Prob: 0},
			{From: "t", To: "t", Prob: 1},
		},
		Values: []store.Value{
			{State: "s", Player: "A", Value: 1, Payoff: 1},
			{State: "t", Player: "A", Value: 2, Payoff: 2 + 1e-12},
		},
	}

	errs := EvaluateAssertions(run, []Assertion{
		{Type: AssertIdentity},
		{Type: AssertEquilibrium, Success: ptr(true)},
		{Type: AssertTransition, From: "s", To: "t", Prob: ptr(0.0)},
		{Type: AssertValue, State: "t", Player: "A", Value: ptr(2.0)},
		{Type: AssertPayoffEqualsValue},
	})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(run, []Assertion{
		{Type: AssertPayoffEqualsValue, Tolerance: 1e-15},
		{Type: AssertTransition, From: "s", To: "u", Prob: ptr(0.0)},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[1], "no such transition")
}

func TestAssertionErrorFormat(t *testing.T) {
	err := &AssertionError{Type: AssertValue, Expected: "V(s, A) = 1", Actual: "2"}
	assert.Equal(t, "Assertion failed: value\n  Expected: V(s, A) = 1\n  Actual: 2", err.Error())
}
