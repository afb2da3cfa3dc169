package effectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/farsight/internal/game"
	"github.com/roach88/farsight/internal/testutil"
)

func state(t *testing.T, label string) game.State {
	t.Helper()
	s, err := game.ParseStateLabel(label)
	require.NoError(t, err)
	return s
}

func TestDeriveCommitteesFollowTable(t *testing.T) {
	table := testutil.Table(testutil.UniformProposals, testutil.AlwaysAccept)

	eff, err := Derive(table, testutil.Players(), testutil.States())
	require.NoError(t, err)

	assert.Equal(t, []game.Player{"T"}, eff.Committee("W", "( )", "(WT)"))
	assert.Equal(t, []game.Player{"T", "C"}, eff.Committee("W", "( )", "(WTC)"))
	assert.True(t, eff.IsRequired("W", "( )", "(WT)", "T"))
	assert.False(t, eff.IsRequired("W", "( )", "(WT)", "C"))
	assert.False(t, eff.IsRequired("W", "( )", "(WT)", "W"))
}

func TestDeriveStatusQuoCommitteeIsProposer(t *testing.T) {
	eff, err := Derive(testutil.StatusQuoTable(), testutil.Players(), testutil.States())
	require.NoError(t, err)

	for _, p := range testutil.Players() {
		for _, s := range testutil.StateNames() {
			assert.Equal(t, []game.Player{p}, eff.Committee(p, s, s), "proposer %s in %s", p, s)
		}
	}
}

func TestDeriveBreakoutCommitteeIsProposer(t *testing.T) {
	eff, err := Derive(testutil.StatusQuoTable(), testutil.Players(), testutil.States())
	require.NoError(t, err)

	// Leaving the grand coalition.
	assert.Equal(t, []game.Player{"W"}, eff.Committee("W", "(WTC)", "(TC)"))
	assert.Equal(t, []game.Player{"C"}, eff.Committee("C", "(WTC)", "(WT)"))
	// Leaving a two-member coalition for all singletons.
	assert.Equal(t, []game.Player{"T"}, eff.Committee("T", "(TC)", "( )"))
	assert.Equal(t, []game.Player{"C"}, eff.Committee("C", "(TC)", "( )"))
}

func TestDeriveRejectsStatusQuoWithOtherApprover(t *testing.T) {
	table := testutil.StatusQuoTable()
	table.SetAcceptance("(WT)", "T", "W", "(WT)", 1)

	_, err := Derive(table, testutil.Players(), testutil.States())
	require.Error(t, err)
	assert.True(t, game.IsConfigurationError(err))

	var ge *game.Error
	require.ErrorAs(t, err, &ge)
	require.NotNil(t, ge.Transition)
	assert.Equal(t, game.TransitionKey{Proposer: "W", Current: "(WT)", Next: "(WT)"}, *ge.Transition)
}

func TestDeriveRejectsBreakoutWithOtherApprover(t *testing.T) {
	table := testutil.StatusQuoTable()
	table.SetAcceptance("(WTC)", "T", "W", "(TC)", 1)

	_, err := Derive(table, testutil.Players(), testutil.States())
	require.Error(t, err)
	assert.True(t, game.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "from=(WTC)")
	assert.Contains(t, err.Error(), "to=(TC)")
}

func TestDeriveAllowsProposerEntryOnUnilateralMove(t *testing.T) {
	table := testutil.StatusQuoTable()
	table.SetAcceptance("(WTC)", "W", "W", "(TC)", 1)

	eff, err := Derive(table, testutil.Players(), testutil.States())
	require.NoError(t, err)
	assert.Equal(t, []game.Player{"W"}, eff.Committee("W", "(WTC)", "(TC)"))
}

func TestIsUniformBreakout(t *testing.T) {
	tests := []struct {
		name     string
		proposer game.Player
		current  string
		next     string
		want     bool
	}{
		{"grand coalition exit", "W", "(WTC)", "(TC)", true},
		{"pair dissolves", "W", "(WT)", "( )", true},
		{"pair dissolves other member", "T", "(WT)", "( )", true},
		{"not a member", "C", "(WT)", "( )", false},
		{"swap partner", "T", "(WT)", "(WC)", false},
		{"stays member", "W", "(WTC)", "(WT)", false},
		{"grand coalition to singletons", "W", "(WTC)", "( )", false},
		{"joins", "W", "(TC)", "(WTC)", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUniformBreakout(testutil.Players(), tt.proposer, state(t, tt.current), state(t, tt.next))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsUniformBreakoutOnlyFromGrandCoalition(t *testing.T) {
	players := []game.Player{"A", "B", "C", "D"}

	tests := []struct {
		name     string
		proposer game.Player
		current  string
		next     string
		want     bool
	}{
		{"grand coalition exit", "A", "(ABCD)", "(BCD)", true},
		{"three of four shrink", "A", "(ABC)", "(BC)", false},
		{"pair dissolves", "A", "(AB)", "( )", true},
		{"grand coalition to pair", "A", "(ABCD)", "(CD)", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUniformBreakout(players, tt.proposer, state(t, tt.current), state(t, tt.next))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCorrespondenceIsImmutableCopy(t *testing.T) {
	players := testutil.Players()
	eff, err := Derive(testutil.StatusQuoTable(), players, testutil.States())
	require.NoError(t, err)

	players[0] = "X"
	assert.Equal(t, game.Player("W"), eff.Players()[0])

	got := eff.Players()
	got[1] = "Y"
	assert.Equal(t, game.Player("T"), eff.Players()[1])
	assert.Len(t, eff.States(), 5)
}
