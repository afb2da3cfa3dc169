package transition

import (
	"fmt"
	"math"
	"sort"

	"github.com/roach88/farsight/internal/game"
)

// Tolerance bounds row-sum drift and probability bounds in the post-condition check.
const Tolerance = 1e-9

// Check is the structured outcome of the post-condition check.
type Check struct {
	Passed     bool     `json:"passed"`
	Violations []string `json:"violations,omitempty"`
}

// Validate checks the engine's post-conditions on a result:
//   - every row of P sums to 1 within Tolerance
//   - every P entry, proposal and approval probability lies in [0,1]
//
// It never panics or aborts; callers decide how to treat a failed Check.
func Validate(res *Result) Check {
	var violations []string

	rows, cols := res.P.Dims()
	for i := 0; i < rows; i++ {
		var sum float64
		for j := 0; j < cols; j++ {
			v := res.P.At(i, j)
			sum += v
			if !inUnit(v) {
				violations = append(violations, fmt.Sprintf("P[%s][%s] = %v outside [0,1]",
					res.States[i].Name, res.States[j].Name, v))
			}
		}
		if math.Abs(sum-1) > Tolerance || math.IsNaN(sum) {
			violations = append(violations, fmt.Sprintf("row %s sums to %v, not 1", res.States[i].Name, sum))
		}
	}

	violations = append(violations, checkMap("proposal", res.Proposals)...)
	violations = append(violations, checkMap("approval", res.Approvals)...)

	return Check{Passed: len(violations) == 0, Violations: violations}
}

func checkMap(kind string, probs map[game.TransitionKey]float64) []string {
	var out []string
	for key, v := range probs {
		if !inUnit(v) {
			out = append(out, fmt.Sprintf("%s probability %v outside [0,1] (%s)", kind, v, key))
		}
	}
	// Map order is random; keep diagnostics stable.
	sort.Strings(out)
	return out
}

func inUnit(v float64) bool {
	return v >= -Tolerance && v <= 1+Tolerance
}
