package transition

import (
	"fmt"
	"log/slog"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/farsight/internal/effectivity"
	"github.com/roach88/farsight/internal/game"
)

// Mode selects the approval rule.
type Mode int

const (
	// Unanimity requires every committee member to accept.
	Unanimity Mode = iota
	// Majority applies the two-approver majority cases.
	Majority
)

func (m Mode) String() string {
	switch m {
	case Unanimity:
		return "unanimity"
	case Majority:
		return "majority"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "unanimity" or "majority".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unanimity", "":
		return Unanimity, nil
	case "majority":
		return Majority, nil
	default:
		return 0, game.NewConfigurationError(fmt.Sprintf("invalid mode %q: must be unanimity or majority", s))
	}
}

// Input bundles everything the engine reads. None of it is modified.
type Input struct {
	Table       game.Strategies
	Effectivity *effectivity.Correspondence
	Players     []game.Player
	States      []game.State
	Protocol    game.Protocol
	Mode        Mode
}

// Warning is a non-fatal condition found while computing probabilities.
type Warning struct {
	Transition game.TransitionKey `json:"transition"`
	Message    string             `json:"message"`
}

// Result holds the transition matrix and the per-triple probabilities.
type Result struct {
	Mode    Mode
	Players []game.Player
	States  []game.State

	// P is the state × state transition matrix in States order.
	P *mat.Dense

	// Proposals holds the probability that the proposer, if selected,
	// proposes the transition.
	Proposals map[game.TransitionKey]float64

	// Approvals holds the probability that the committee approves the transition.
	Approvals map[game.TransitionKey]float64

	Warnings []Warning
	Check    Check
}

// Prob returns P[from][to] by state name, or 0 for unknown states.
func (r *Result) Prob(from, to string) float64 {
	i, j := r.stateIndex(from), r.stateIndex(to)
	if i < 0 || j < 0 {
		return 0
	}
	return r.P.At(i, j)
}

func (r *Result) stateIndex(name string) int {
	for i, s := range r.States {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Engine computes transition probabilities.
type Engine struct {
	logger  *slog.Logger
	lenient bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for warnings. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithLenientChecks makes a failed post-condition check non-fatal: the failure
// is logged and returned in Result.Check instead of as an error.
func WithLenientChecks() Option {
	return func(e *Engine) { e.lenient = true }
}

// New creates an engine. By default post-condition failures are fatal.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Compute derives the transition matrix and the proposal/approval maps.
//
// Returns an approval committee error if a committee cannot be handled by the
// selected mode, and a numerical inconsistency error if the post-condition
// check fails in strict mode.
func (e *Engine) Compute(in Input) (*Result, error) {
	if in.Table == nil || in.Effectivity == nil {
		return nil, game.NewConfigurationError("transition input requires a strategy table and an effectivity correspondence")
	}
	if len(in.Players) == 0 || len(in.States) == 0 {
		return nil, game.NewConfigurationError("transition input requires at least one player and one state")
	}

	n := len(in.States)
	res := &Result{
		Mode:      in.Mode,
		Players:   append([]game.Player(nil), in.Players...),
		States:    append([]game.State(nil), in.States...),
		P:         mat.NewDense(n, n, nil),
		Proposals: make(map[game.TransitionKey]float64, len(in.Players)*n*n),
		Approvals: make(map[game.TransitionKey]float64, len(in.Players)*n*n),
	}

	for _, proposer := range in.Players {
		for i, current := range in.States {
			for j, next := range in.States {
				key := game.TransitionKey{Proposer: proposer, Current: current.Name, Next: next.Name}

				pProposal := in.Table.ProposalProbability(current.Name, proposer, next.Name)
				pProposed := in.Protocol[proposer] * pProposal

				pApproved, err := e.approval(in, res, key, current, next)
				if err != nil {
					return nil, err
				}
				pRejected := 1 - pApproved

				res.Proposals[key] = pProposal
				res.Approvals[key] = pApproved

				// If proposed and approved, the state changes.
				res.P.Set(i, j, res.P.At(i, j)+pProposed*pApproved)
				// Otherwise it stays where it is.
				res.P.Set(i, i, res.P.At(i, i)+pProposed*pRejected)
			}
		}
	}

	res.Check = Validate(res)
	if !res.Check.Passed {
		if !e.lenient {
			return nil, game.NewNumericalError("transition probabilities failed post-condition check", map[string]string{
				"violations": strings.Join(res.Check.Violations, "; "),
			})
		}
		e.logger.Warn("transition probabilities failed post-condition check",
			"mode", in.Mode.String(),
			"violations", len(res.Check.Violations),
		)
	}

	e.logger.Debug("transition probabilities computed",
		"mode", in.Mode.String(),
		"states", n,
		"players", len(in.Players),
		"warnings", len(res.Warnings),
	)

	return res, nil
}

// approval returns p_approved for one triple under the engine's mode.
func (e *Engine) approval(in Input, res *Result, key game.TransitionKey, current, next game.State) (float64, error) {
	// Maintaining the status quo is trivially approved.
	if current.Name == next.Name {
		return 1, nil
	}

	committee := in.Effectivity.Committee(key.Proposer, key.Current, key.Next)
	if len(committee) == 0 {
		msg := "approval committee is empty; transition is never approved"
		res.Warnings = append(res.Warnings, Warning{Transition: key, Message: msg})
		e.logger.Warn(msg,
			"proposer", string(key.Proposer),
			"from", key.Current,
			"to", key.Next,
		)
		return 0, nil
	}

	switch in.Mode {
	case Unanimity:
		return unanimityApproval(in.Table, key, committee)
	case Majority:
		return majorityApproval(in.Table, key, current, next, committee)
	default:
		return 0, game.NewConfigurationError(fmt.Sprintf("unsupported mode %s", in.Mode))
	}
}

// unanimityApproval multiplies the acceptances of a committee of one or two approvers.
func unanimityApproval(table game.Strategies, key game.TransitionKey, committee []game.Player) (float64, error) {
	if len(committee) > 2 {
		return 0, game.NewApprovalCommitteeError(key, len(committee),
			fmt.Sprintf("unanimity rule supports at most 2 approvers, committee has %d", len(committee)))
	}
	return product(table, key, committee), nil
}

// acceptance resolves a committee member's acceptance probability.
func acceptance(table game.Strategies, key game.TransitionKey, responder game.Player) float64 {
	return game.EffectiveAcceptance(table, key.Current, responder, key.Proposer, key.Next)
}

// product multiplies the acceptance probabilities of players.
func product(table game.Strategies, key game.TransitionKey, players []game.Player) float64 {
	p := 1.0
	for _, responder := range players {
		p *= acceptance(table, key, responder)
	}
	return p
}
