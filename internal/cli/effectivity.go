package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/farsight/internal/config"
	"github.com/roach88/farsight/internal/effectivity"
	"github.com/roach88/farsight/internal/experiment"
	"github.com/roach88/farsight/internal/game"
)

// CommitteeEntry is the approval committee of one transition.
type CommitteeEntry struct {
	Proposer   string   `json:"proposer"`
	Current    string   `json:"current"`
	Next       string   `json:"next"`
	Committee  []string `json:"committee"`
	Approval   float64  `json:"approval"` // probability the committee approves
	Unilateral bool     `json:"unilateral"`
}

// NewEffectivityCommand creates the effectivity command.
func NewEffectivityCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "effectivity <experiment.yaml>",
		Short: "Print approval committees",
		Long: `Print who must approve each transition of an experiment.

Only moves away from the current state are listed. A unilateral move is one
the proposer decides alone: breaking out of its coalition.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEffectivity(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runEffectivity(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	exp, err := config.Load(path)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, fmt.Sprintf("experiment %s", path), err)
	}

	ctx := commandContext(cmd)
	res, err := experiment.Run(ctx, exp, experiment.Options{Logger: opts.Logger(cmd.ErrOrStderr()), Lenient: true})
	if err != nil {
		return commandError(formatter, ErrCodeRun, fmt.Sprintf("experiment %s", exp.Name), err)
	}

	var entries []CommitteeEntry
	for _, proposer := range res.Players {
		for _, current := range res.States {
			for _, next := range res.States {
				if current.Name == next.Name {
					continue
				}
				entry := CommitteeEntry{
					Proposer:  string(proposer),
					Current:   current.Name,
					Next:      next.Name,
					Committee: []string{},
					Approval:  res.Transition.Approvals[game.TransitionKey{Proposer: proposer, Current: current.Name, Next: next.Name}],
				}
				for _, m := range res.Effectivity.Committee(proposer, current.Name, next.Name) {
					entry.Committee = append(entry.Committee, string(m))
				}
				entry.Unilateral = effectivity.IsUniformBreakout(res.Players, proposer, current, next)
				entries = append(entries, entry)
			}
		}
	}

	if opts.Format == "json" {
		return formatter.Success(entries)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Experiment: %s\n\n", res.Name)
	for _, e := range entries {
		committee := "(none)"
		if len(e.Committee) > 0 {
			committee = strings.Join(e.Committee, ", ")
		}
		suffix := ""
		if e.Unilateral {
			suffix = " [unilateral]"
		}
		fmt.Fprintf(w, "%s: %s -> %s: %s%s\n", e.Proposer, e.Current, e.Next, committee, suffix)
	}
	return nil
}
