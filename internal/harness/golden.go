package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/farsight/internal/report"
)

// RunWithGolden executes a scenario and compares its text report against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the report doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot, err := Snapshot(result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)

	return result, nil
}

// Snapshot renders the text report of a result, the content of its golden
// file.
func Snapshot(result *Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := report.WriteText(&buf, result.Experiment); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
