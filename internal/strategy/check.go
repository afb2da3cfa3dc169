package strategy

import (
	"fmt"
	"math"
	"sort"

	"github.com/roach88/farsight/internal/game"
)

// Consistency issue codes.
const (
	ErrCodeUnknownPlayer = "E211" // Key names a player outside the game
	ErrCodeUnknownState  = "E212" // Key names a state outside the game
	ErrCodeProposalSum   = "E213" // Proposal row does not sum to 1
)

// rowTolerance bounds a proposal row's drift from 1.
const rowTolerance = 1e-9

// Issue is a consistency problem found by Check.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Code, i.Message)
}

// Check reports entries that name unknown players or states and proposal
// rows (state, proposer) that do not sum to 1. Issues are sorted.
func Check(table *game.StrategyTable, players []game.Player, states []game.State) []Issue {
	knownPlayer := make(map[game.Player]bool, len(players))
	for _, p := range players {
		knownPlayer[p] = true
	}
	knownState := make(map[string]bool, len(states))
	for _, s := range states {
		knownState[s.Name] = true
	}

	seen := make(map[string]bool)
	var issues []Issue
	add := func(code, msg string) {
		if seen[code+msg] {
			return
		}
		seen[code+msg] = true
		issues = append(issues, Issue{Code: code, Message: msg})
	}
	player := func(p game.Player) {
		if !knownPlayer[p] {
			add(ErrCodeUnknownPlayer, fmt.Sprintf("unknown player %q", p))
		}
	}
	state := func(s string) {
		if !knownState[s] {
			add(ErrCodeUnknownState, fmt.Sprintf("unknown state %q", s))
		}
	}

	for _, k := range table.ProposalKeys() {
		player(k.Proposer)
		state(k.State)
		state(k.Next)
	}
	for _, k := range table.AcceptanceKeys() {
		player(k.Responder)
		player(k.Proposer)
		state(k.State)
		state(k.Next)
	}

	type row struct {
		state    string
		proposer game.Player
	}
	sums := make(map[row]float64)
	for _, p := range players {
		for _, s := range states {
			sums[row{s.Name, p}] = 0
		}
	}
	for _, k := range table.ProposalKeys() {
		sums[row{k.State, k.Proposer}] += table.ProposalProbability(k.State, k.Proposer, k.Next)
	}
	for r, sum := range sums {
		if math.Abs(sum-1) > rowTolerance {
			add(ErrCodeProposalSum, fmt.Sprintf("proposals of %s in %s sum to %v, not 1", r.proposer, r.state, sum))
		}
	}

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Code != issues[j].Code {
			return issues[i].Code < issues[j].Code
		}
		return issues[i].Message < issues[j].Message
	})
	return issues
}
