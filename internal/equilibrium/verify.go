// Package equilibrium checks whether a strategy profile is consistent with
// the value functions it induces.
//
// Proposers must only put positive probability on proposals that maximise
// their expected value, and approvers must accept strictly improving moves
// and reject strictly worsening ones. A failed check is a result, never an
// error.
package equilibrium

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/farsight/internal/effectivity"
	"github.com/roach88/farsight/internal/game"
	"github.com/roach88/farsight/internal/valuefn"
)

// Tolerance is the absolute tolerance for comparing values.
const Tolerance = 1e-12

// SuccessMessage is reported when both checks pass.
const SuccessMessage = "All tests passed."

// Input is everything the verifier reads.
type Input struct {
	Players     []game.Player
	States      []game.State
	Proposals   map[game.TransitionKey]float64
	Approvals   map[game.TransitionKey]float64
	Effectivity *effectivity.Correspondence
	Table       game.Strategies
	V           *valuefn.Table
}

// Check is the outcome of one verification pass.
type Check struct {
	Passed     bool        `json:"passed"`
	Violations []Violation `json:"violations,omitempty"`
}

// Violation describes one inconsistent strategy entry.
type Violation struct {
	Player  game.Player `json:"player"`
	State   string      `json:"state"`
	Message string      `json:"message"`
}

// Report combines both checks.
type Report struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Proposals Check  `json:"proposals"`
	Approvals Check  `json:"approvals"`
}

// Verify runs both checks.
func Verify(in Input) Report {
	r := Report{
		Proposals: VerifyProposals(in),
		Approvals: VerifyApprovals(in),
	}
	r.Success = r.Proposals.Passed && r.Approvals.Passed
	if r.Success {
		r.Message = SuccessMessage
		return r
	}

	var lines []string
	for _, v := range r.Proposals.Violations {
		lines = append(lines, v.Message)
	}
	for _, v := range r.Approvals.Violations {
		lines = append(lines, v.Message)
	}
	r.Message = strings.Join(lines, "\n")
	return r
}

// VerifyProposals checks that every next state proposed with positive
// probability maximises the proposer's expected value
//
//	E[next] = p_approved·V[next] + (1 − p_approved)·V[current]
//
// within Tolerance.
func VerifyProposals(in Input) Check {
	var violations []Violation

	for _, proposer := range in.Players {
		for _, current := range in.States {
			vCurrent := value(in.V, current.Name, proposer)

			expected := make([]float64, len(in.States))
			best := math.Inf(-1)
			for j, next := range in.States {
				key := game.TransitionKey{Proposer: proposer, Current: current.Name, Next: next.Name}
				pApproved := in.Approvals[key]
				expected[j] = pApproved*value(in.V, next.Name, proposer) + (1-pApproved)*vCurrent
				best = math.Max(best, expected[j])
			}

			var positive, argmax []string
			ok := true
			for j, next := range in.States {
				isMax := math.Abs(expected[j]-best) <= Tolerance
				if isMax {
					argmax = append(argmax, next.Name)
				}
				key := game.TransitionKey{Proposer: proposer, Current: current.Name, Next: next.Name}
				if in.Proposals[key] > 0 {
					positive = append(positive, next.Name)
					if !isMax {
						ok = false
					}
				}
			}

			if !ok {
				violations = append(violations, Violation{
					Player: proposer,
					State:  current.Name,
					Message: fmt.Sprintf("Proposal strategy error with player %s! In state %s, positive probability on state(s) %v, but the argmax states are: %v.\nThe value functions V are:\n%s",
						proposer, current.Name, positive, argmax, formatValues(in.V)),
				})
			}
		}
	}

	return Check{Passed: len(violations) == 0, Violations: violations}
}

// VerifyApprovals checks every committee member's acceptance against its
// values: indifferent members may accept with any probability, members that
// gain must accept with probability 1 and members that lose must reject.
//
// A proposer that sits on its own committee without a table entry consents
// implicitly and is not checked.
func VerifyApprovals(in Input) Check {
	var violations []Violation

	for _, proposer := range in.Players {
		for _, current := range in.States {
			for _, next := range in.States {
				for _, approver := range in.Effectivity.Committee(proposer, current.Name, next.Name) {
					entry := in.Table.AcceptanceProbability(current.Name, approver, proposer, next.Name)
					if !entry.Applicable && approver == proposer {
						continue
					}
					p := game.EffectiveAcceptance(in.Table, current.Name, approver, proposer, next.Name)

					vCurrent := value(in.V, current.Name, approver)
					vNext := value(in.V, next.Name, approver)

					var passed bool
					switch {
					case math.Abs(vNext-vCurrent) <= Tolerance:
						passed = p >= 0 && p <= 1
					case vNext > vCurrent:
						passed = p == 1
					default:
						passed = p == 0
					}

					if !passed {
						violations = append(violations, Violation{
							Player: approver,
							State:  current.Name,
							Message: fmt.Sprintf("Approval strategy error with player %s! When player %s proposes the transition %s -> %s, the values are V(current) = %.5f and V(next) = %.5f, but approval probability is %v.",
								approver, proposer, current.Name, next.Name, vCurrent, vNext, p),
						})
					}
				}
			}
		}
	}

	return Check{Passed: len(violations) == 0, Violations: violations}
}

func value(t *valuefn.Table, state string, player game.Player) float64 {
	v, _ := t.Get(state, player)
	return v
}

// formatValues renders V as an aligned state × player table.
func formatValues(t *valuefn.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s", "")
	for _, p := range t.Players {
		fmt.Fprintf(&b, " %12s", p)
	}
	b.WriteString("\n")
	for _, s := range t.States {
		fmt.Fprintf(&b, "%-8s", s)
		for _, p := range t.Players {
			fmt.Fprintf(&b, " %12.5f", value(t, s, p))
		}
		b.WriteString("\n")
	}
	return b.String()
}
