package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/farsight/internal/store"
)

// NewRunsCommand creates the runs command group.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored runs",
	}
	cmd.AddCommand(newRunsListCommand(rootOpts))
	cmd.AddCommand(newRunsShowCommand(rootOpts))
	return cmd
}

func newRunsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List stored runs in save order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts, cmd)
			st, err := openStore(opts, formatter)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(commandContext(cmd))
			if err != nil {
				return commandError(formatter, ErrCodeStore, "failed to list runs", err)
			}

			if opts.Format == "json" {
				if runs == nil {
					runs = []store.Run{}
				}
				return formatter.Success(runs)
			}

			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(w, "No runs stored.")
				return nil
			}
			au := opts.Colors()
			for _, r := range runs {
				status := au.Green("pass")
				if !r.Success {
					status = au.Red("fail")
				}
				fmt.Fprintf(w, "%4d  %s  %-24s %-10s γ=%v  %s\n", r.Seq, r.ID, r.Experiment, r.Mode, r.Discounting, status)
			}
			return nil
		},
	}
}

func newRunsShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show a stored run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts, cmd)
			st, err := openStore(opts, formatter)
			if err != nil {
				return err
			}
			defer st.Close()

			run, err := st.GetRun(commandContext(cmd), args[0])
			if errors.Is(err, store.ErrRunNotFound) {
				_ = formatter.Error(ErrCodeStore, fmt.Sprintf("run %s not found", args[0]), nil)
				return NewExitError(ExitFailure, fmt.Sprintf("run %s not found", args[0]))
			}
			if err != nil {
				return commandError(formatter, ErrCodeStore, "failed to read run", err)
			}

			if opts.Format == "json" {
				return formatter.Success(run)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Run: %s (seq %d)\n", run.ID, run.Seq)
			fmt.Fprintf(w, "Experiment: %s\n", run.Experiment)
			fmt.Fprintf(w, "Mode: %s\n", run.Mode)
			fmt.Fprintf(w, "Discounting: %v\n", run.Discounting)
			fmt.Fprintln(w, "\nTransitions")
			for _, tp := range run.Transitions {
				if tp.Prob != 0 {
					fmt.Fprintf(w, "  %s -> %s: %.5f\n", tp.From, tp.To, tp.Prob)
				}
			}
			fmt.Fprintln(w, "\nValues")
			for _, v := range run.Values {
				fmt.Fprintf(w, "  V(%s, %s) = %.5f  payoff %.5f\n", v.State, v.Player, v.Value, v.Payoff)
			}
			fmt.Fprintf(w, "\nStatus: %s\n", run.Message)
			return nil
		},
	}
}

func openStore(opts *RootOptions, formatter *OutputFormatter) (*store.Store, error) {
	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, commandError(formatter, ErrCodeStore, "failed to open database", err)
	}
	return st, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
