package payoff

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/farsight/internal/game"
	"github.com/roach88/farsight/internal/valuefn"
)

// PowerRule decides which coalition gets to deploy geoengineering.
type PowerRule int

const (
	// PowerThreshold lets the coalition with the largest power share deploy,
	// provided it holds at least MinPower.
	PowerThreshold PowerRule = iota
	// WeakGovernance lets the coalition with the highest preferred deployment
	// level deploy.
	WeakGovernance
)

func (r PowerRule) String() string {
	switch r {
	case PowerThreshold:
		return "power_threshold"
	case WeakGovernance:
		return "weak_governance"
	default:
		return fmt.Sprintf("PowerRule(%d)", int(r))
	}
}

// ParsePowerRule parses "power_threshold" or "weak_governance".
func ParsePowerRule(s string) (PowerRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "power_threshold":
		return PowerThreshold, nil
	case "weak_governance":
		return WeakGovernance, nil
	default:
		return 0, game.NewConfigurationError(fmt.Sprintf("invalid power rule %q: must be power_threshold or weak_governance", s))
	}
}

// powerSumTolerance bounds the drift of coalition power shares from 1.
const powerSumTolerance = 1e-12

// Structure is a coalition structure: a partition of all countries.
type Structure struct {
	Name       string
	Coalitions []Coalition
	Countries  []Country
	Rule       PowerRule

	// MinPower is required by PowerThreshold and ignored otherwise.
	MinPower *float64
}

// NewStructure builds and validates a structure.
func NewStructure(name string, coalitions []Coalition, countries []Country, rule PowerRule, minPower *float64) (*Structure, error) {
	s := &Structure{
		Name:       name,
		Coalitions: coalitions,
		Countries:  countries,
		Rule:       rule,
		MinPower:   minPower,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks country parameters, coalition powers and the power rule.
func (s *Structure) Validate() error {
	if len(s.Coalitions) == 0 {
		return game.NewConfigurationError(fmt.Sprintf("structure %s has no coalitions", s.Name))
	}
	for _, c := range s.Countries {
		if err := c.Validate(); err != nil {
			return err
		}
	}

	var total float64
	for _, c := range s.Coalitions {
		p := c.TotalPower()
		if p < 0 || p > 1 {
			return game.NewConfigurationError(fmt.Sprintf("structure %s: coalition power must be in [0,1], got %v", s.Name, p))
		}
		total += p
	}
	if math.Abs(total-1) > powerSumTolerance {
		return game.NewConfigurationError(fmt.Sprintf("structure %s: coalition powers must sum up to 1, got %v", s.Name, total))
	}

	switch s.Rule {
	case PowerThreshold:
		if s.MinPower == nil {
			return game.NewConfigurationError(fmt.Sprintf("structure %s: minimum power threshold is not defined", s.Name))
		}
	case WeakGovernance:
	default:
		return game.NewConfigurationError(fmt.Sprintf("structure %s: unsupported power rule %s", s.Name, s.Rule))
	}
	return nil
}

// Strongest returns the coalition selected by the power rule. Ties go to the
// coalition listed first.
func (s *Structure) Strongest() Coalition {
	key := Coalition.TotalPower
	if s.Rule == WeakGovernance {
		key = Coalition.AvgIdealG
	}

	best := s.Coalitions[0]
	for _, c := range s.Coalitions[1:] {
		if key(c) > key(best) {
			best = c
		}
	}
	return best
}

// Deployment returns the geoengineering level G deployed in this structure.
//
// Under PowerThreshold nothing is deployed unless the strongest coalition
// reaches MinPower, and a deploying coalition must be the unique strongest.
func (s *Structure) Deployment() (float64, error) {
	winner := s.Strongest()
	g := winner.AvgIdealG()
	if s.Rule != PowerThreshold {
		return g, nil
	}

	power := winner.TotalPower()
	if power < *s.MinPower {
		return 0, nil
	}

	count := 0
	for _, c := range s.Coalitions {
		if c.TotalPower() == power {
			count++
		}
	}
	if count != 1 {
		return 0, game.NewConfigurationError(fmt.Sprintf("structure %s: several winning coalitions not allowed", s.Name))
	}
	return g, nil
}

// Payoffs returns every country's static payoff at this structure's deployment.
func (s *Structure) Payoffs() (map[game.Player]float64, error) {
	g, err := s.Deployment()
	if err != nil {
		return nil, err
	}
	out := make(map[game.Player]float64, len(s.Countries))
	for _, c := range s.Countries {
		out[c.Name] = c.Payoff(g)
	}
	return out, nil
}

// State returns the game state for this structure. Its members are those of
// the non-singleton coalition, if any.
func (s *Structure) State() (game.State, error) {
	var members []game.Player
	for _, c := range s.Coalitions {
		if len(c.Members) < 2 {
			continue
		}
		if members != nil {
			return game.State{}, game.NewConfigurationError(fmt.Sprintf("structure %s has more than one non-singleton coalition", s.Name))
		}
		for _, m := range c.Members {
			members = append(members, m.Name)
		}
	}
	return game.NewState(s.Name, members...), nil
}

// PayoffTable computes the static payoff of every player in every structure.
func PayoffTable(structures []*Structure, players []game.Player) (*valuefn.Table, error) {
	names := make([]string, len(structures))
	for i, s := range structures {
		names[i] = s.Name
	}

	t := valuefn.NewTable(names, players)
	for _, s := range structures {
		payoffs, err := s.Payoffs()
		if err != nil {
			return nil, err
		}
		for _, p := range players {
			v, ok := payoffs[p]
			if !ok {
				return nil, game.NewConfigurationError(fmt.Sprintf("structure %s has no country %s", s.Name, p))
			}
			if err := t.Set(s.Name, p, v); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// DeploymentLevels maps each structure name to its deployment level G.
func DeploymentLevels(structures []*Structure) (map[string]float64, error) {
	out := make(map[string]float64, len(structures))
	for _, s := range structures {
		g, err := s.Deployment()
		if err != nil {
			return nil, err
		}
		out[s.Name] = g
	}
	return out, nil
}
