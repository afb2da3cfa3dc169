// Package experiment wires the pipeline together: payoffs from the climate
// model, the approval committees of the strategy table, the transition
// matrix, the value functions and the equilibrium check.
package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/farsight/internal/config"
	"github.com/roach88/farsight/internal/effectivity"
	"github.com/roach88/farsight/internal/equilibrium"
	"github.com/roach88/farsight/internal/game"
	"github.com/roach88/farsight/internal/payoff"
	"github.com/roach88/farsight/internal/strategy"
	"github.com/roach88/farsight/internal/transition"
	"github.com/roach88/farsight/internal/valuefn"
)

// Options control a run.
type Options struct {
	// Logger receives pipeline logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Lenient makes transition post-condition failures non-fatal.
	Lenient bool

	// Table overrides the strategy table named by the experiment.
	Table game.Strategies
}

// Input is the core pipeline input: everything after payoffs are known.
type Input struct {
	Name     string
	Players  []game.Player
	States   []game.State
	Protocol game.Protocol
	Mode     transition.Mode
	Discount float64
	Payoffs  *valuefn.Table
	Table    game.Strategies
	Logger   *slog.Logger
	Lenient  bool
}

// Result carries every artifact of a run.
type Result struct {
	Name        string
	Description string
	Mode        transition.Mode
	Discount    float64
	Players     []game.Player
	States      []game.State

	Payoffs    *valuefn.Table
	Deployment map[string]float64

	Effectivity *effectivity.Correspondence
	Transition  *transition.Result
	Values      *valuefn.Table
	Report      equilibrium.Report
}

// Run executes an experiment definition.
func Run(ctx context.Context, exp *config.Experiment, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	structures, err := Structures(exp)
	if err != nil {
		return nil, err
	}

	players := exp.GamePlayers()
	payoffs, err := payoff.PayoffTable(structures, players)
	if err != nil {
		return nil, err
	}
	deployment, err := payoff.DeploymentLevels(structures)
	if err != nil {
		return nil, err
	}

	states, err := statesOf(structures)
	if err != nil {
		return nil, err
	}

	table := opts.Table
	if table == nil {
		path := exp.StrategyPath()
		logger.Debug("loading strategy table", "path", path)
		loaded, err := strategy.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading strategy table: %w", err)
		}
		table = loaded
	}

	mode, err := transition.ParseMode(exp.Mode)
	if err != nil {
		return nil, err
	}

	res, err := RunStrategies(ctx, Input{
		Name:     exp.Name,
		Players:  players,
		States:   states,
		Protocol: exp.GameProtocol(),
		Mode:     mode,
		Discount: exp.Discounting,
		Payoffs:  payoffs,
		Table:    table,
		Logger:   logger,
		Lenient:  opts.Lenient,
	})
	if err != nil {
		return nil, err
	}
	res.Description = exp.Description
	res.Deployment = deployment
	return res, nil
}

// RunStrategies runs effectivity, transition, value and equilibrium stages.
func RunStrategies(ctx context.Context, in Input) (*Result, error) {
	logger := in.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if in.Payoffs == nil {
		return nil, game.NewConfigurationError("payoff table is required")
	}

	eff, err := effectivity.Derive(in.Table, in.Players, in.States)
	if err != nil {
		return nil, err
	}

	opts := []transition.Option{transition.WithLogger(logger)}
	if in.Lenient {
		opts = append(opts, transition.WithLenientChecks())
	}
	tr, err := transition.New(opts...).Compute(transition.Input{
		Table:       in.Table,
		Effectivity: eff,
		Players:     in.Players,
		States:      in.States,
		Protocol:    in.Protocol,
		Mode:        in.Mode,
	})
	if err != nil {
		return nil, err
	}

	values, err := valuefn.SolveAll(ctx, tr.P, in.Payoffs, in.Discount)
	if err != nil {
		return nil, err
	}

	report := equilibrium.Verify(equilibrium.Input{
		Players:     in.Players,
		States:      in.States,
		Proposals:   tr.Proposals,
		Approvals:   tr.Approvals,
		Effectivity: eff,
		Table:       in.Table,
		V:           values,
	})

	logger.Info("experiment finished",
		"experiment", in.Name,
		"mode", in.Mode.String(),
		"success", report.Success,
	)

	return &Result{
		Name:        in.Name,
		Mode:        in.Mode,
		Discount:    in.Discount,
		Players:     in.Players,
		States:      in.States,
		Payoffs:     in.Payoffs,
		Effectivity: eff,
		Transition:  tr,
		Values:      values,
		Report:      report,
	}, nil
}

// Structures builds the coalition structures of an experiment.
func Structures(exp *config.Experiment) ([]*payoff.Structure, error) {
	rule, err := payoff.ParsePowerRule(exp.PowerRule)
	if err != nil {
		return nil, err
	}

	countries := make([]payoff.Country, len(exp.Players))
	byName := make(map[string]payoff.Country, len(exp.Players))
	for i, p := range exp.Players {
		c := payoff.Country{
			Name:           game.Player(p),
			BaseTemp:       exp.BaseTemp[p],
			DeltaTemp:      exp.DeltaTemp[p],
			IdealTemp:      exp.IdealTemp[p],
			MarginalDamage: exp.MDamage[p],
			Power:          exp.Power[p],
		}
		countries[i] = c
		byName[p] = c
	}

	structures := make([]*payoff.Structure, 0, len(exp.States))
	for _, spec := range exp.States {
		coalitions := make([]payoff.Coalition, len(spec.Coalitions))
		for i, members := range spec.Coalitions {
			for _, m := range members {
				c, ok := byName[string(game.NewPlayer(m))]
				if !ok {
					return nil, game.NewConfigurationError(fmt.Sprintf("state %s: unknown player %q", spec.Name, m))
				}
				coalitions[i].Members = append(coalitions[i].Members, c)
			}
		}
		s, err := payoff.NewStructure(spec.Name, coalitions, countries, rule, exp.MinPower)
		if err != nil {
			return nil, err
		}
		structures = append(structures, s)
	}
	return structures, nil
}

// States returns the game states of an experiment in definition order.
func States(exp *config.Experiment) ([]game.State, error) {
	structures, err := Structures(exp)
	if err != nil {
		return nil, err
	}
	return statesOf(structures)
}

func statesOf(structures []*payoff.Structure) ([]game.State, error) {
	states := make([]game.State, len(structures))
	for i, s := range structures {
		st, err := s.State()
		if err != nil {
			return nil, err
		}
		states[i] = st
	}
	return states, nil
}
