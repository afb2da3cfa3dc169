package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/farsight/internal/config"
	"github.com/roach88/farsight/internal/experiment"
	"github.com/roach88/farsight/internal/report"
	"github.com/roach88/farsight/internal/store"
)

// Error codes reported by farsight commands.
const (
	ErrCodeConfig      = "E_CONFIG"
	ErrCodeRun         = "E_RUN"
	ErrCodeExport      = "E_EXPORT"
	ErrCodeStore       = "E_STORE"
	ErrCodeEquilibrium = "E_EQUILIBRIUM"
	ErrCodeNotFound    = "E_NOT_FOUND"
	ErrCodeTestFailed  = "E_TEST_FAILED"
)

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	*RootOptions
	LaTeXDir string
	ChartDir string
	Save     bool
	Lenient  bool
}

// SolvedExperiment is the JSON form of one solved experiment.
type SolvedExperiment struct {
	report.Document
	RunID string   `json:"run_id,omitempty"`
	Files []string `json:"files,omitempty"`
}

// SolveResult holds every solved experiment.
type SolveResult struct {
	Experiments []SolvedExperiment `json:"experiments"`
	Passed      int                `json:"passed"`
	Failed      int                `json:"failed"`
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "solve <experiment.yaml>...",
		Short: "Solve experiments and verify their equilibria",
		Long: `Solve one or more experiments.

For each experiment prints the transition matrix, static payoffs, value
functions and deployment levels, followed by the equilibrium check.

Exit codes:
  0 - Every experiment passed the equilibrium check
  1 - One or more experiments failed the check
  2 - Command error (unreadable experiment, inconsistent strategy table, etc.)

Examples:
  farsight solve examples/experiments/pair.yaml
  farsight solve experiments/*.yaml --latex ./results --save
  farsight solve pair.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.LaTeXDir, "latex", "", "write LaTeX tables into this directory")
	cmd.Flags().StringVar(&opts.ChartDir, "chart", "", "write an HTML value chart per experiment into this directory")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "store runs in the results database")
	cmd.Flags().BoolVar(&opts.Lenient, "lenient", false, "report transition post-condition failures instead of aborting")

	return cmd
}

func runSolve(opts *SolveOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.Logger(cmd.ErrOrStderr())
	au := opts.Colors()
	w := cmd.OutOrStdout()

	ctx := commandContext(cmd)

	var st *store.Store
	if opts.Save {
		var err error
		st, err = store.Open(opts.DB)
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	result := SolveResult{Experiments: make([]SolvedExperiment, 0, len(paths))}
	for _, path := range paths {
		formatter.VerboseLog("Loading experiment %s", path)
		exp, err := config.Load(path)
		if err != nil {
			return commandError(formatter, ErrCodeConfig, fmt.Sprintf("experiment %s", path), err)
		}

		res, err := experiment.Run(ctx, exp, experiment.Options{Logger: logger, Lenient: opts.Lenient})
		if err != nil {
			return commandError(formatter, ErrCodeRun, fmt.Sprintf("experiment %s", exp.Name), err)
		}

		solved := SolvedExperiment{Document: report.NewDocument(res)}
		if solved.Files, err = exportResult(opts, res); err != nil {
			return commandError(formatter, ErrCodeExport, fmt.Sprintf("experiment %s", exp.Name), err)
		}
		if st != nil {
			run, err := st.SaveRun(ctx, store.NewRun(res))
			if err != nil {
				return commandError(formatter, ErrCodeStore, fmt.Sprintf("experiment %s", exp.Name), err)
			}
			solved.RunID = run.ID
			logger.Info("run saved", "experiment", exp.Name, "run_id", run.ID, "seq", run.Seq)
		}

		if res.Report.Success {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Experiments = append(result.Experiments, solved)

		if opts.Format == "json" {
			continue
		}
		if err := report.WriteText(w, res); err != nil {
			return err
		}
		if res.Report.Success {
			fmt.Fprintln(w, au.Green(fmt.Sprintf("✓ %s: equilibrium verified", res.Name)))
		} else {
			fmt.Fprintln(w, au.Red(fmt.Sprintf("✗ %s: equilibrium check failed", res.Name)))
		}
		for _, f := range solved.Files {
			fmt.Fprintf(w, "  wrote %s\n", f)
		}
		if solved.RunID != "" {
			fmt.Fprintf(w, "  saved run %s\n", solved.RunID)
		}
		fmt.Fprintln(w, "----------")
	}

	if opts.Format == "json" {
		if result.Failed > 0 {
			return failWithData(formatter, ErrCodeEquilibrium,
				fmt.Sprintf("%d experiment(s) failed the equilibrium check", result.Failed), result)
		}
		return formatter.Success(result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d experiment(s) failed the equilibrium check", result.Failed))
	}
	return nil
}

// exportResult writes the LaTeX tables and value chart requested by flags.
func exportResult(opts *SolveOptions, res *experiment.Result) ([]string, error) {
	var files []string
	if opts.LaTeXDir != "" {
		written, err := report.WriteLaTeXTables(opts.LaTeXDir, res)
		files = append(files, written...)
		if err != nil {
			return files, err
		}
	}
	if opts.ChartDir != "" {
		path := filepath.Join(opts.ChartDir, fmt.Sprintf("V_%s.html", res.Name))
		if err := writeChart(path, res); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

func writeChart(path string, res *experiment.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := report.WriteValueChart(f, res.Name, res.Values); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
