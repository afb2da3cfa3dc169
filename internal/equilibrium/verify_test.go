package equilibrium

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/farsight/internal/effectivity"
	"github.com/roach88/farsight/internal/game"
	"github.com/roach88/farsight/internal/transition"
	"github.com/roach88/farsight/internal/valuefn"
)

var (
	players = []game.Player{"A", "B"}
	states  = []game.State{game.NewState("( )"), game.NewState("(AB)", "A", "B")}
)

// pairTable is an equilibrium of the two-player game where both players
// prefer the pair: everybody proposes it and everybody accepts it.
func pairTable() *game.StrategyTable {
	t := game.NewStrategyTable()
	t.SetProposal("( )", "A", "(AB)", 1)
	t.SetProposal("( )", "B", "(AB)", 1)
	t.SetAcceptance("( )", "B", "A", "(AB)", 1)
	t.SetAcceptance("( )", "A", "B", "(AB)", 1)
	t.SetProposal("(AB)", "A", "(AB)", 1)
	t.SetProposal("(AB)", "B", "(AB)", 1)
	return t
}

func values(t *testing.T, emptyA, emptyB, pairA, pairB float64) *valuefn.Table {
	t.Helper()
	v := valuefn.NewTable(game.StateNames(states), players)
	require.NoError(t, v.Set("( )", "A", emptyA))
	require.NoError(t, v.Set("( )", "B", emptyB))
	require.NoError(t, v.Set("(AB)", "A", pairA))
	require.NoError(t, v.Set("(AB)", "B", pairB))
	return v
}

func buildInput(t *testing.T, table *game.StrategyTable, v *valuefn.Table) Input {
	t.Helper()
	eff, err := effectivity.Derive(table, players, states)
	require.NoError(t, err)

	engine := transition.New(transition.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	res, err := engine.Compute(transition.Input{
		Table:       table,
		Effectivity: eff,
		Players:     players,
		States:      states,
		Protocol:    game.UniformProtocol(players),
		Mode:        transition.Unanimity,
	})
	require.NoError(t, err)

	return Input{
		Players:     players,
		States:      states,
		Proposals:   res.Proposals,
		Approvals:   res.Approvals,
		Effectivity: eff,
		Table:       table,
		V:           v,
	}
}

func TestVerifyPasses(t *testing.T) {
	report := Verify(buildInput(t, pairTable(), values(t, 0, 0, 10, 5)))

	assert.True(t, report.Success)
	assert.Equal(t, "All tests passed.", report.Message)
	assert.Empty(t, report.Proposals.Violations)
	assert.Empty(t, report.Approvals.Violations)
}

func TestVerifyProposalsFlagsNonMaximiser(t *testing.T) {
	table := pairTable()
	table.SetProposal("( )", "A", "(AB)", 0.5)
	table.SetProposal("( )", "A", "( )", 0.5)

	check := VerifyProposals(buildInput(t, table, values(t, 0, 0, 10, 5)))

	require.False(t, check.Passed)
	require.Len(t, check.Violations, 1)
	v := check.Violations[0]
	assert.Equal(t, game.Player("A"), v.Player)
	assert.Equal(t, "( )", v.State)
	assert.Contains(t, v.Message, "Proposal strategy error with player A! In state ( ), positive probability on state(s) [( ) (AB)], but the argmax states are: [(AB)].")
	assert.Contains(t, v.Message, "The value functions V are:")
	assert.Contains(t, v.Message, "10.00000")
}

func TestVerifyProposalsAcceptsTies(t *testing.T) {
	table := pairTable()
	table.SetProposal("( )", "A", "(AB)", 0.5)
	table.SetProposal("( )", "A", "( )", 0.5)

	// A is indifferent between staying apart and forming the pair.
	check := VerifyProposals(buildInput(t, table, values(t, 3, 0, 3, 5)))
	assert.True(t, check.Passed)
}

func TestVerifyApprovals(t *testing.T) {
	tests := []struct {
		name   string
		accept float64
		v      [4]float64
		passed bool
	}{
		{"gain requires acceptance", 1, [4]float64{0, 0, 10, 5}, true},
		{"gain with partial acceptance", 0.5, [4]float64{0, 0, 10, 5}, false},
		{"gain with rejection", 0, [4]float64{0, 0, 10, 5}, false},
		{"loss requires rejection", 0, [4]float64{0, 0, 10, -5}, true},
		{"loss with acceptance", 1, [4]float64{0, 0, 10, -5}, false},
		{"indifferent accepts anything", 0.3, [4]float64{0, 2, 10, 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := pairTable()
			table.SetAcceptance("( )", "B", "A", "(AB)", tt.accept)

			check := VerifyApprovals(buildInput(t, table, values(t, tt.v[0], tt.v[1], tt.v[2], tt.v[3])))
			assert.Equal(t, tt.passed, check.Passed)
			if !tt.passed {
				require.NotEmpty(t, check.Violations)
				assert.Equal(t, game.Player("B"), check.Violations[0].Player)
				assert.Contains(t, check.Violations[0].Message,
					"Approval strategy error with player B! When player A proposes the transition ( ) -> (AB)")
			}
		})
	}
}

func TestVerifyJoinsMessages(t *testing.T) {
	table := pairTable()
	table.SetProposal("( )", "A", "(AB)", 0.5)
	table.SetProposal("( )", "A", "( )", 0.5)
	table.SetAcceptance("( )", "A", "B", "(AB)", 0.5)

	report := Verify(buildInput(t, table, values(t, 0, 0, 10, 5)))

	assert.False(t, report.Success)
	assert.False(t, report.Proposals.Passed)
	assert.False(t, report.Approvals.Passed)
	assert.Contains(t, report.Message, "Proposal strategy error with player A!")
	assert.Contains(t, report.Message, "\nApproval strategy error with player A!")
}
