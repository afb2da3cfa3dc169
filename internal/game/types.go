package game

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Player identifies an actor in the coalition game (a country in the
// reference domain).
type Player string

// NewPlayer returns the NFC-normalized form of label.
func NewPlayer(label string) Player {
	return Player(norm.NFC.String(strings.TrimSpace(label)))
}

// State is a coalition structure.
//
// Name is the label used throughout strategy tables and reports (e.g. "(TC)").
// Members lists the players currently grouped together in the non-singleton
// coalition. It is empty when every player stands alone.
type State struct {
	Name    string   `json:"name" yaml:"name"`
	Members []Player `json:"members" yaml:"members"`
}

// NewState builds a state with a normalized name and sorted, de-duplicated members.
func NewState(name string, members ...Player) State {
	seen := make(map[Player]bool, len(members))
	out := make([]Player, 0, len(members))
	for _, m := range members {
		m = NewPlayer(string(m))
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return State{Name: NormalizeLabel(name), Members: out}
}

// ParseStateLabel derives a state from the parenthesised single-letter notation
// of the reference domain: "(WTC)" has members W, T and C; "( )" has none.
func ParseStateLabel(label string) (State, error) {
	label = NormalizeLabel(label)
	open := strings.Index(label, "(")
	closing := strings.LastIndex(label, ")")
	if open < 0 || closing < open {
		return State{}, fmt.Errorf("state label %q: expected members in parentheses", label)
	}

	var members []Player
	for _, r := range label[open+1 : closing] {
		if r == ' ' {
			continue
		}
		members = append(members, Player(string(r)))
	}
	return NewState(label, members...), nil
}

// NormalizeLabel trims and NFC-normalizes a state label.
func NormalizeLabel(label string) string {
	return norm.NFC.String(strings.TrimSpace(label))
}

// Has reports whether p is a member of the state's coalition.
func (s State) Has(p Player) bool {
	for _, m := range s.Members {
		if m == p {
			return true
		}
	}
	return false
}

// MemberSet returns the coalition members as a set.
func (s State) MemberSet() map[Player]bool {
	set := make(map[Player]bool, len(s.Members))
	for _, m := range s.Members {
		set[m] = true
	}
	return set
}

func (s State) String() string {
	return s.Name
}

// StateNames returns the names of states in order.
func StateNames(states []State) []string {
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = s.Name
	}
	return names
}

// TransitionKey identifies a proposal: proposer suggests moving from Current to Next.
type TransitionKey struct {
	Proposer Player `json:"proposer"`
	Current  string `json:"current"`
	Next     string `json:"next"`
}

func (k TransitionKey) String() string {
	return fmt.Sprintf("proposer %s: %s -> %s", k.Proposer, k.Current, k.Next)
}

// Protocol maps each player to its probability of being selected as proposer
// in any given round.
type Protocol map[Player]float64

// protocolTolerance bounds how far the protocol may drift from summing to 1.
const protocolTolerance = 1e-9

// UniformProtocol assigns equal proposer probability to every player.
func UniformProtocol(players []Player) Protocol {
	p := make(Protocol, len(players))
	for _, player := range players {
		p[player] = 1 / float64(len(players))
	}
	return p
}

// Validate checks that every player has a probability in [0,1] and that the
// probabilities sum to 1. The transition engine trusts its protocol, so callers
// run this before invoking it.
func (p Protocol) Validate(players []Player) error {
	var sum float64
	for _, player := range players {
		prob, ok := p[player]
		if !ok {
			return NewConfigurationError(fmt.Sprintf("protocol has no probability for player %s", player))
		}
		if prob < 0 || prob > 1 || math.IsNaN(prob) {
			return NewConfigurationError(fmt.Sprintf("protocol probability for player %s is %v, must be in [0,1]", player, prob))
		}
		sum += prob
	}
	if len(p) != len(players) {
		return NewConfigurationError("protocol lists players that are not in the game")
	}
	if math.Abs(sum-1) > protocolTolerance {
		return NewConfigurationError(fmt.Sprintf("protocol probabilities sum to %v, must sum to 1", sum))
	}
	return nil
}
