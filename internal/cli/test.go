package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/farsight/internal/harness"
)

// TestOptions are the flags of `farsight test`.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult summarises a scenario directory.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r *TestResult) add(sr ScenarioResult) {
	r.Scenarios = append(r.Scenarios, sr)
	if sr.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run every scenario file in a directory against its experiment.

Each scenario's assertions are evaluated against the stored run. When
golden/<scenario>.golden exists next to the scenario, the text report
must also match it byte for byte.

Exit codes:
  0 - every scenario passed
  1 - at least one scenario failed
  2 - the directory could not be read

Examples:
  farsight test ./examples/scenarios
  farsight test ./examples/scenarios --filter "pair*"
  farsight test ./examples/scenarios --update
  farsight test ./examples/scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files from the current reports")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name matches this glob")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	jsonOut := opts.Format == "json"
	au := opts.Colors()
	w := cmd.OutOrStdout()

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		msg := fmt.Sprintf("scenarios directory not found: %s", dir)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	files, err := scenarioFiles(dir, opts.Filter)
	if err != nil {
		return commandError(formatter, ErrCodeNotFound, "failed to find scenarios", err)
	}

	result := TestResult{Scenarios: []ScenarioResult{}, Total: len(files)}
	if len(files) == 0 {
		if jsonOut {
			return formatter.Success(result)
		}
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	for _, file := range files {
		sr := runScenario(file, opts.Update)
		result.add(sr)
		if jsonOut {
			continue
		}
		if sr.Pass {
			fmt.Fprintln(w, au.Green("✓ "+sr.Name))
			continue
		}
		fmt.Fprintln(w, au.Red("✗ "+sr.Name))
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
		}
	}

	msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	if jsonOut {
		if result.Failed > 0 {
			return failWithData(formatter, ErrCodeTestFailed, msg, result)
		}
		return formatter.Success(result)
	}

	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, msg)
	}
	fmt.Fprintln(w, au.Green("✓ All scenarios passed"))
	return nil
}

// scenarioFiles lists YAML files under dir in lexical order. Golden files
// and other extensions are skipped.
func scenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern %q: %w", filter, err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func runScenario(file string, update bool) ScenarioResult {
	fail := func(name, format string, args ...interface{}) ScenarioResult {
		return ScenarioResult{Name: name, Errors: []string{fmt.Sprintf(format, args...)}}
	}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return fail(filepath.Base(file), "failed to load scenario: %v", err)
	}
	result, err := harness.Run(scenario)
	if err != nil {
		return fail(scenario.Name, "execution failed: %v", err)
	}
	snapshot, err := harness.Snapshot(result)
	if err != nil {
		return fail(scenario.Name, "report failed: %v", err)
	}

	sr := ScenarioResult{Name: scenario.Name, Pass: result.Pass, Errors: result.Errors}
	if err := compareGolden(goldenPath(file), snapshot, update); err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, err.Error())
	}
	return sr
}

// compareGolden checks snapshot against the golden file at path, or writes
// it when update is set. A missing golden file is not a failure.
func compareGolden(path string, snapshot []byte, update bool) error {
	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, snapshot, 0o644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
		return nil
	}

	golden, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(golden, snapshot) {
		return errors.New("report does not match golden file (run with --update to regenerate)")
	}
	return nil
}

// goldenPath maps dir/name.yaml to dir/golden/name.golden.
func goldenPath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}
