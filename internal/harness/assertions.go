package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/farsight/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against run and returns the
// failure messages in assertion order.
func EvaluateAssertions(run store.Run, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(run, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(run store.Run, a Assertion) error {
	switch a.Type {
	case AssertEquilibrium:
		return assertEquilibrium(run, a)
	case AssertIdentity:
		return assertIdentity(run, a)
	case AssertTransition:
		return assertTransition(run, a)
	case AssertValue:
		return assertValue(run, a)
	case AssertPayoffEqualsValue:
		return assertPayoffEqualsValue(run, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func tolerance(a Assertion) float64 {
	if a.Tolerance > 0 {
		return a.Tolerance
	}
	return DefaultTolerance
}

func assertEquilibrium(run store.Run, a Assertion) error {
	if run.Success == *a.Success {
		return nil
	}
	return &AssertionError{
		Type:     AssertEquilibrium,
		Expected: fmt.Sprintf("success=%v", *a.Success),
		Actual:   fmt.Sprintf("success=%v: %s", run.Success, run.Message),
	}
}

func assertIdentity(run store.Run, a Assertion) error {
	tol := tolerance(a)
	for _, tp := range run.Transitions {
		want := 0.0
		if tp.From == tp.To {
			want = 1
		}
		if math.Abs(tp.Prob-want) > tol {
			return &AssertionError{
				Type:     AssertIdentity,
				Expected: fmt.Sprintf("P(%s, %s) = %v", tp.From, tp.To, want),
				Actual:   fmt.Sprintf("%v", tp.Prob),
			}
		}
	}
	return nil
}

func assertTransition(run store.Run, a Assertion) error {
	for _, tp := range run.Transitions {
		if tp.From != a.From || tp.To != a.To {
			continue
		}
		if math.Abs(tp.Prob-*a.Prob) <= tolerance(a) {
			return nil
		}
		return &AssertionError{
			Type:     AssertTransition,
			Expected: fmt.Sprintf("P(%s, %s) = %v", a.From, a.To, *a.Prob),
			Actual:   fmt.Sprintf("%v", tp.Prob),
		}
	}
	return &AssertionError{
		Type:     AssertTransition,
		Expected: fmt.Sprintf("P(%s, %s) = %v", a.From, a.To, *a.Prob),
		Actual:   "no such transition",
	}
}

func assertValue(run store.Run, a Assertion) error {
	for _, v := range run.Values {
		if v.State != a.State || v.Player != a.Player {
			continue
		}
		if math.Abs(v.Value-*a.Value) <= tolerance(a) {
			return nil
		}
		return &AssertionError{
			Type:     AssertValue,
			Expected: fmt.Sprintf("V(%s, %s) = %v", a.State, a.Player, *a.Value),
			Actual:   fmt.Sprintf("%v", v.Value),
		}
	}
	return &AssertionError{
		Type:     AssertValue,
		Expected: fmt.Sprintf("V(%s, %s) = %v", a.State, a.Player, *a.Value),
		Actual:   "no such state and player",
	}
}

func assertPayoffEqualsValue(run store.Run, a Assertion) error {
	tol := tolerance(a)
	for _, v := range run.Values {
		if math.Abs(v.Value-v.Payoff) > tol {
			return &AssertionError{
				Type:     AssertPayoffEqualsValue,
				Expected: fmt.Sprintf("V(%s, %s) = payoff %v", v.State, v.Player, v.Payoff),
				Actual:   fmt.Sprintf("%v", v.Value),
			}
		}
	}
	return nil
}
