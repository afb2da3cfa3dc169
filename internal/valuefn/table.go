package valuefn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/farsight/internal/game"
)

// Table is a state × player matrix of values, used both for static payoffs
// and for solved value functions.
type Table struct {
	States  []string
	Players []game.Player
	Values  *mat.Dense
}

// NewTable creates a zero-filled table.
func NewTable(states []string, players []game.Player) *Table {
	t := &Table{
		States:  append([]string(nil), states...),
		Players: append([]game.Player(nil), players...),
	}
	if len(states) > 0 && len(players) > 0 {
		t.Values = mat.NewDense(len(states), len(players), nil)
	}
	return t
}

// StateIndex returns the row of state, or -1.
func (t *Table) StateIndex(state string) int {
	for i, s := range t.States {
		if s == state {
			return i
		}
	}
	return -1
}

// PlayerIndex returns the column of player, or -1.
func (t *Table) PlayerIndex(player game.Player) int {
	for i, p := range t.Players {
		if p == player {
			return i
		}
	}
	return -1
}

// Get returns the value for (state, player) and whether both exist.
func (t *Table) Get(state string, player game.Player) (float64, bool) {
	i, j := t.StateIndex(state), t.PlayerIndex(player)
	if i < 0 || j < 0 || t.Values == nil {
		return 0, false
	}
	return t.Values.At(i, j), true
}

// Set stores v at (state, player).
func (t *Table) Set(state string, player game.Player, v float64) error {
	i, j := t.StateIndex(state), t.PlayerIndex(player)
	if i < 0 || j < 0 || t.Values == nil {
		return game.NewConfigurationError(fmt.Sprintf("no cell for state %q and player %q", state, player))
	}
	t.Values.Set(i, j, v)
	return nil
}

// Column returns a copy of player's column in States order, or nil if the
// player is unknown.
func (t *Table) Column(player game.Player) []float64 {
	j := t.PlayerIndex(player)
	if j < 0 || t.Values == nil {
		return nil
	}
	return mat.Col(nil, j, t.Values)
}
