package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/farsight/internal/config"
	"github.com/roach88/farsight/internal/experiment"
	"github.com/roach88/farsight/internal/game"
	"github.com/roach88/farsight/internal/strategy"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Experiment string
}

// ValidationError is one problem found in a strategy file.
type ValidationError struct {
	File    string `json:"file,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <strategy.cue|dir>",
		Short: "Validate strategy tables",
		Long: `Load strategy tables and check them against the schema.

With --experiment, also reports entries naming players or states outside the
experiment and proposal rows that do not sum to 1.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Experiment, "experiment", "", "experiment whose players and states the tables must match")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	var (
		players []game.Player
		states  []game.State
	)
	if opts.Experiment != "" {
		exp, err := config.Load(opts.Experiment)
		if err != nil {
			return commandError(formatter, ErrCodeConfig, fmt.Sprintf("experiment %s", opts.Experiment), err)
		}
		players = exp.GamePlayers()
		if states, err = experiment.States(exp); err != nil {
			return commandError(formatter, ErrCodeConfig, fmt.Sprintf("experiment %s", opts.Experiment), err)
		}
	}

	tables, loadErrors, err := loadTables(path)
	if err != nil {
		var loadErr *strategy.LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, strategy.ErrCodeGeneric, err.Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", len(tables)+len(loadErrors), path)

	var validationErrors []ValidationError
	for _, err := range loadErrors {
		validationErrors = append(validationErrors, toValidationError(err))
	}
	if opts.Experiment != "" {
		for _, file := range sortedKeys(tables) {
			formatter.VerboseLog("Checking %s", file)
			for _, issue := range strategy.Check(tables[file], players, states) {
				validationErrors = append(validationErrors, ValidationError{File: file, Code: issue.Code, Message: issue.Message})
			}
		}
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, len(tables)+len(loadErrors), validationErrors)
	}
	return outputValidateSuccess(formatter, len(tables))
}

// loadTables loads a single file or every file under a directory. The
// returned error is set only when nothing could be loaded at all.
func loadTables(path string) (map[string]*game.StrategyTable, []error, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, &strategy.LoadError{Code: strategy.ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}
	}

	if !info.IsDir() {
		table, err := strategy.LoadFile(path)
		if err != nil {
			return map[string]*game.StrategyTable{}, []error{err}, nil
		}
		return map[string]*game.StrategyTable{path: table}, nil, nil
	}

	result, errs := strategy.LoadDir(path, strategy.LoadModeCollectAll)
	if result == nil {
		return nil, nil, errs[0]
	}
	return result.Tables, errs, nil
}

func toValidationError(err error) ValidationError {
	var loadErr *strategy.LoadError
	if !errors.As(err, &loadErr) {
		return ValidationError{Code: strategy.ErrCodeGeneric, Message: err.Error()}
	}
	ve := ValidationError{Code: loadErr.Code, Message: loadErr.Message}
	if loadErr.Pos.IsValid() {
		ve.File = loadErr.Pos.Filename()
		ve.Line = loadErr.Pos.Line()
	}
	return ve
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, files int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Files: files})
	}

	fmt.Fprintf(formatter.Writer, "✓ All strategy tables valid (%d file(s))\n", files)
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, files int, errs []ValidationError) error {
	msg := fmt.Sprintf("validation failed with %d error(s)", len(errs))

	if formatter.Format == "json" {
		return failWithData(formatter, errs[0].Code, msg, ValidationResult{Valid: false, Files: files, Errors: errs})
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		switch {
		case err.File != "" && err.Line > 0:
			fmt.Fprintf(formatter.Writer, "%s:%d\n", err.File, err.Line)
		case err.File != "":
			fmt.Fprintf(formatter.Writer, "%s\n", err.File)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, msg)
}

func sortedKeys(tables map[string]*game.StrategyTable) []string {
	result := &strategy.LoadResult{Tables: tables}
	return result.Paths()
}
