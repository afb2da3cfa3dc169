// Package effectivity derives the effectivity correspondence of a coalition game:
// for every proposer and state transition, which players must approve it.
package effectivity

import (
	"github.com/roach88/farsight/internal/game"
)

// Key identifies one (proposer, current, next, responder) quadruple.
type Key struct {
	Proposer  game.Player
	Current   string
	Next      string
	Responder game.Player
}

// Correspondence maps every quadruple to whether the responder is a required
// approver. It is immutable once returned by Derive.
type Correspondence struct {
	players  []game.Player
	states   []game.State
	required map[Key]bool
}

// Derive builds the effectivity correspondence from a strategy table.
//
// A responder is a required approver iff its acceptance entry for the
// quadruple is applicable. Two kinds of transition are unilateral: the status
// quo and a uniform breakout. For both the proposer is placed on the committee,
// and any other listed responder makes the table inconsistent (fatal
// configuration error).
func Derive(table game.Strategies, players []game.Player, states []game.State) (*Correspondence, error) {
	c := &Correspondence{
		players:  append([]game.Player(nil), players...),
		states:   append([]game.State(nil), states...),
		required: make(map[Key]bool, len(players)*len(players)*len(states)*len(states)),
	}

	for _, proposer := range players {
		for _, current := range states {
			for _, next := range states {
				for _, responder := range players {
					acc := table.AcceptanceProbability(current.Name, responder, proposer, next.Name)
					c.required[Key{proposer, current.Name, next.Name, responder}] = acc.Applicable
				}

				if current.Name != next.Name && !IsUniformBreakout(players, proposer, current, next) {
					continue
				}

				// Unilateral move: the proposer decides alone.
				c.required[Key{proposer, current.Name, next.Name, proposer}] = true
				committee := c.Committee(proposer, current.Name, next.Name)
				if len(committee) != 1 || committee[0] != proposer {
					key := game.TransitionKey{Proposer: proposer, Current: current.Name, Next: next.Name}
					return nil, game.NewCommitteeMismatchError(key, committee)
				}
			}
		}
	}

	return c, nil
}

// IsUniformBreakout reports whether proposer leaves its coalition while the
// rest of it stays together. Two moves qualify:
//
//   - leaving the grand coalition of all players for the structure formed by
//     the remaining members
//   - leaving a two-member coalition for the fully fragmented state, since a
//     single member left behind is no coalition at all
//
// Shrinking any other coalition by one member needs the approval the table
// lists.
func IsUniformBreakout(players []game.Player, proposer game.Player, current, next game.State) bool {
	if !current.Has(proposer) || next.Has(proposer) {
		return false
	}

	switch len(current.Members) {
	case 2:
		return len(next.Members) == 0
	case len(players):
	default:
		return false
	}

	if len(next.Members) != len(current.Members)-1 {
		return false
	}
	for _, m := range next.Members {
		if !current.Has(m) {
			return false
		}
	}
	return true
}

// IsRequired reports whether responder must approve proposer's move from current to next.
func (c *Correspondence) IsRequired(proposer game.Player, current, next string, responder game.Player) bool {
	return c.required[Key{proposer, current, next, responder}]
}

// Committee returns the approval committee of a transition in player order.
func (c *Correspondence) Committee(proposer game.Player, current, next string) []game.Player {
	var committee []game.Player
	for _, responder := range c.players {
		if c.required[Key{proposer, current, next, responder}] {
			committee = append(committee, responder)
		}
	}
	return committee
}

// Players returns the players the correspondence was derived for.
func (c *Correspondence) Players() []game.Player {
	return append([]game.Player(nil), c.players...)
}

// States returns the states the correspondence was derived for.
func (c *Correspondence) States() []game.State {
	return append([]game.State(nil), c.states...)
}
