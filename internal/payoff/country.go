// Package payoff implements the solar geoengineering payoff model: countries
// with temperature preferences form coalitions, the strongest coalition
// deploys geoengineering at its preferred level G, and every country's static
// payoff in a coalition structure follows from G.
package payoff

import (
	"fmt"

	"github.com/roach88/farsight/internal/game"
)

// Country is one player of the payoff model.
type Country struct {
	Name game.Player

	// BaseTemp is the preindustrial baseline temperature.
	BaseTemp float64
	// DeltaTemp is the climate-induced temperature change.
	DeltaTemp float64
	// IdealTemp is the country's preferred temperature.
	IdealTemp float64
	// MarginalDamage scales the quadratic damage function.
	MarginalDamage float64
	// Power is the country's share of global power in [0,1].
	Power float64
}

// Validate reports invalid parameters as a configuration error.
func (c Country) Validate() error {
	if c.Name == "" {
		return game.NewConfigurationError("country name is required")
	}
	if c.MarginalDamage < 0 {
		return game.NewConfigurationError(fmt.Sprintf("country %s: marginal damage cannot be negative, got %v", c.Name, c.MarginalDamage))
	}
	if c.Power < 0 || c.Power > 1 {
		return game.NewConfigurationError(fmt.Sprintf("country %s: power must be in [0,1], got %v", c.Name, c.Power))
	}
	return nil
}

// ClimateChangeTemp is the temperature without any geoengineering.
func (c Country) ClimateChangeTemp() float64 {
	return c.BaseTemp + c.DeltaTemp
}

// IdealGeoengineering is the deployment level that brings the country back
// to its ideal temperature.
func (c Country) IdealGeoengineering() float64 {
	return c.ClimateChangeTemp() - c.IdealTemp
}

// ClimateChangeDamage is the damage with zero deployment.
func (c Country) ClimateChangeDamage() float64 {
	d := c.ClimateChangeTemp() - c.IdealTemp
	return c.MarginalDamage * d * d
}

// WeightedDamage is the power-weighted marginal damage.
func (c Country) WeightedDamage() float64 {
	return c.Power * c.MarginalDamage
}

// Damage returns the damage at global deployment g, normalised so that
// Damage(0) is zero.
func (c Country) Damage(g float64) float64 {
	deviation := c.IdealGeoengineering() - g
	return c.MarginalDamage*deviation*deviation - c.ClimateChangeDamage()
}

// Payoff is the negated damage.
func (c Country) Payoff(g float64) float64 {
	return -c.Damage(g)
}

// Coalition is a group of cooperating countries.
type Coalition struct {
	Members []Country
}

// NewCoalition groups countries.
func NewCoalition(members ...Country) Coalition {
	return Coalition{Members: members}
}

// TotalPower sums the members' power shares.
func (c Coalition) TotalPower() float64 {
	var sum float64
	for _, m := range c.Members {
		sum += m.Power
	}
	return sum
}

// AvgIdealG is the weighted-damage average of the members' ideal deployment
// levels. A coalition without weighted damage has no preference and reports 0.
func (c Coalition) AvgIdealG() float64 {
	var num, den float64
	for _, m := range c.Members {
		eta := m.WeightedDamage()
		num += m.IdealGeoengineering() * eta
		den += eta
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Has reports whether the coalition contains the named country.
func (c Coalition) Has(name game.Player) bool {
	for _, m := range c.Members {
		if m.Name == name {
			return true
		}
	}
	return false
}
