// Package harness runs conformance scenarios against experiments.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: pair_walkout
//	description: "A walks out of the pair half the time"
//	experiment: ../experiments/pair.yaml
//	mode: unanimity            # optional override
//	assertions:
//	  - type: equilibrium
//	    success: true
//	  - type: transition
//	    from: "(AB)"
//	    to: "( )"
//	    prob: 0.5
//	  - type: value
//	    state: "(AB)"
//	    player: B
//	    value: 8
//	    tolerance: 1e-9
//
// The experiment path is resolved relative to the scenario file.
//
// # Assertion Types
//
//   - equilibrium: the verification outcome equals success
//   - identity: the transition matrix is the identity
//   - transition: P(from, to) equals prob
//   - value: V(state, player) equals value
//   - payoff_equals_value: V equals the static payoffs in every cell
//
// # Isolation
//
// Each scenario runs in a fresh in-memory SQLite store. The run is saved and
// read back before assertions are evaluated, so every scenario also checks
// the store round trip. The run ID is the scenario name.
package harness
