package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/farsight/internal/config"
	"github.com/roach88/farsight/internal/experiment"
	"github.com/roach88/farsight/internal/store"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion holds.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Run is the run as read back from the store.
	Run store.Run `json:"run"`

	// Experiment holds every artifact of the run.
	Experiment *experiment.Result `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load the experiment and apply the mode override
//  2. Run the pipeline with logs discarded
//  3. Save the run to a fresh in-memory store and read it back
//  4. Evaluate assertions against the stored run
//
// A failing assertion is reported in the result, not as an error.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	exp, err := config.Load(scenario.Experiment)
	if err != nil {
		return nil, fmt.Errorf("failed to load experiment: %w", err)
	}
	if scenario.Mode != "" {
		exp.Mode = scenario.Mode
	}

	res, err := experiment.Run(ctx, exp, experiment.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run experiment: %w", err)
	}

	st, err := store.Open(":memory:", store.WithRunIDGenerator(store.NewFixedGenerator(scenario.Name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	saved, err := st.SaveRun(ctx, store.NewRun(res))
	if err != nil {
		return nil, err
	}
	run, err := st.GetRun(ctx, saved.ID)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.Run = run
	result.Experiment = res

	for _, msg := range EvaluateAssertions(run, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}
