// Package cli implements the farsight command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"

	"github.com/roach88/farsight/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DB      string
	NoColor bool

	// Env holds FARSIGHT_* settings, read before flags are parsed.
	Env config.Env
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the farsight CLI.
//
// Flag defaults come from the environment (FARSIGHT_DB, FARSIGHT_FORMAT,
// FARSIGHT_LOG_LEVEL); flags given on the command line win.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	env, envErr := config.ParseEnv()
	opts.Env = env

	cmd := &cobra.Command{
		Use:   "farsight",
		Short: "farsight - farsighted coalition formation",
		Long: `Solve coalition formation games for solar geoengineering.

An experiment fixes countries, coalition structures and a strategy table.
farsight derives who must approve each move, builds the transition matrix,
solves the discounted value functions and checks that the strategies form
an equilibrium.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return fmt.Errorf("invalid environment: %w", envErr)
			}
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", defaultString(env.Format, "text"), "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", defaultString(env.DB, "farsight.db"), "path to SQLite results database")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored status lines")

	cmd.AddCommand(NewSolveCommand(opts))
	cmd.AddCommand(NewEffectivityCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}

// Logger returns a text logger on w. --verbose selects debug; otherwise the
// level comes from FARSIGHT_LOG_LEVEL.
func (o *RootOptions) Logger(w io.Writer) *slog.Logger {
	level, err := o.Env.SlogLevel()
	if err != nil {
		level = slog.LevelWarn
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Colors returns the colorizer for status lines. Colors are off for JSON.
func (o *RootOptions) Colors() aurora.Aurora {
	return aurora.NewAurora(!o.NoColor && o.Format != "json")
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
