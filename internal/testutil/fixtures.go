// Package testutil provides shared fixtures for the three-player reference game
// used across package tests.
package testutil

import (
	"github.com/roach88/farsight/internal/game"
)

// Players returns the reference players W, T and C in game order.
func Players() []game.Player {
	return []game.Player{"W", "T", "C"}
}

// StateNames returns the reference state labels in game order.
func StateNames() []string {
	return []string{"( )", "(TC)", "(WC)", "(WT)", "(WTC)"}
}

// States returns the reference coalition structures in game order.
func States() []game.State {
	names := StateNames()
	states := make([]game.State, len(names))
	for i, name := range names {
		s, err := game.ParseStateLabel(name)
		if err != nil {
			panic(err)
		}
		states[i] = s
	}
	return states
}

// AcceptFunc returns responder's acceptance probability for proposer's move.
type AcceptFunc func(current string, responder, proposer game.Player, next string) float64

// ProposeFunc returns proposer's probability of proposing next in current.
type ProposeFunc func(current string, proposer game.Player, next string) float64

// AlwaysAccept accepts every proposal.
func AlwaysAccept(string, game.Player, game.Player, string) float64 { return 1 }

// StatusQuo proposes the current state with probability 1.
func StatusQuo(current string, _ game.Player, next string) float64 {
	if current == next {
		return 1
	}
	return 0
}

// UniformProposals spreads proposals evenly over every state.
func UniformProposals(string, game.Player, string) float64 {
	return 1 / float64(len(StateNames()))
}

// Committee returns the reference committee for a non-unilateral transition:
// every player in the current or next coalition except the proposer.
func Committee(proposer game.Player, current, next game.State) []game.Player {
	var committee []game.Player
	for _, p := range Players() {
		if p == proposer {
			continue
		}
		if current.Has(p) || next.Has(p) {
			committee = append(committee, p)
		}
	}
	return committee
}

// Table builds a strategy table for the reference game. Status-quo and uniform
// breakout transitions get no acceptance entries; every other transition gets
// entries for the reference committee.
func Table(propose ProposeFunc, accept AcceptFunc) *game.StrategyTable {
	table := game.NewStrategyTable()
	states := States()

	for _, proposer := range Players() {
		for _, current := range states {
			for _, next := range states {
				table.SetProposal(current.Name, proposer, next.Name, propose(current.Name, proposer, next.Name))

				if current.Name == next.Name || isBreakout(proposer, current, next) {
					continue
				}
				for _, responder := range Committee(proposer, current, next) {
					table.SetAcceptance(current.Name, responder, proposer, next.Name,
						accept(current.Name, responder, proposer, next.Name))
				}
			}
		}
	}
	return table
}

// StatusQuoTable is a table in which every proposer always proposes the status quo.
func StatusQuoTable() *game.StrategyTable {
	return Table(StatusQuo, AlwaysAccept)
}

// Payoffs returns a static payoff matrix indexed [state][player] in game order.
func Payoffs() [][]float64 {
	return [][]float64{
		{0, 0, 0},
		{-20.25, 13.5, 10.5},
		{6.75, -6.75, 12.75},
		{11.25, 2.25, -2.25},
		{9, 5, 4},
	}
}

func isBreakout(proposer game.Player, current, next game.State) bool {
	if !current.Has(proposer) || next.Has(proposer) {
		return false
	}
	var remaining []game.Player
	for _, m := range current.Members {
		if m != proposer {
			remaining = append(remaining, m)
		}
	}
	if len(remaining) == 1 {
		return len(next.Members) == 0
	}
	if len(remaining) != len(next.Members) {
		return false
	}
	for _, m := range remaining {
		if !next.Has(m) {
			return false
		}
	}
	return true
}
