package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/farsight/internal/experiment"
)

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

// Run is a stored experiment run.
type Run struct {
	ID          string  `json:"id"`
	Experiment  string  `json:"experiment"`
	Mode        string  `json:"mode"`
	Discounting float64 `json:"discounting"`
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	Seq         int64   `json:"seq"`

	States      []string         `json:"states,omitempty"`
	Players     []string         `json:"players,omitempty"`
	Transitions []TransitionProb `json:"transitions,omitempty"`
	Values      []Value          `json:"values,omitempty"`
}

// TransitionProb is one transition matrix entry.
type TransitionProb struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Prob float64 `json:"prob"`
}

// Value is the value function and static payoff of one player in one state.
type Value struct {
	State  string  `json:"state"`
	Player string  `json:"player"`
	Value  float64 `json:"value"`
	Payoff float64 `json:"payoff"`
}

// NewRun converts an experiment result into a run record. ID and Seq are
// assigned by SaveRun.
func NewRun(res *experiment.Result) Run {
	run := Run{
		Experiment:  res.Name,
		Mode:        res.Mode.String(),
		Discounting: res.Discount,
		Success:     res.Report.Success,
		Message:     res.Report.Message,
	}
	for _, s := range res.States {
		run.States = append(run.States, s.Name)
	}
	for _, p := range res.Players {
		run.Players = append(run.Players, string(p))
	}

	for i, from := range run.States {
		for j, to := range run.States {
			run.Transitions = append(run.Transitions, TransitionProb{From: from, To: to, Prob: res.Transition.P.At(i, j)})
		}
	}
	for _, s := range res.States {
		for _, p := range res.Players {
			v, _ := res.Values.Get(s.Name, p)
			pay, _ := res.Payoffs.Get(s.Name, p)
			run.Values = append(run.Values, Value{State: s.Name, Player: string(p), Value: v, Payoff: pay})
		}
	}
	return run
}

// SaveRun stores run in a single transaction and returns it with its new ID
// and seq.
func (s *Store) SaveRun(ctx context.Context, run Run) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("save run: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return Run{}, fmt.Errorf("save run: next seq: %w", err)
	}
	run.ID = s.ids.Generate()
	run.Seq = seq

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, experiment, mode, discounting, success, message, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Experiment, run.Mode, run.Discounting, run.Success, run.Message, run.Seq)
	if err != nil {
		return Run{}, fmt.Errorf("save run: %w", err)
	}

	stateIdx := indexOf(run.States)
	playerIdx := indexOf(run.Players)

	for _, tp := range run.Transitions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transition_probs (run_id, from_idx, to_idx, from_state, to_state, prob)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, stateIdx[tp.From], stateIdx[tp.To], tp.From, tp.To, tp.Prob)
		if err != nil {
			return Run{}, fmt.Errorf("save run: transition %s -> %s: %w", tp.From, tp.To, err)
		}
	}

	for _, v := range run.Values {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO "values" (run_id, state_idx, player_idx, state, player, value, payoff)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.ID, stateIdx[v.State], playerIdx[v.Player], v.State, v.Player, v.Value, v.Payoff)
		if err != nil {
			return Run{}, fmt.Errorf("save run: value %s/%s: %w", v.State, v.Player, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("save run: commit: %w", err)
	}
	return run, nil
}

// GetRun loads a run with its matrix and values.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, experiment, mode, discounting, success, message, seq
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Experiment, &run.Mode, &run.Discounting, &run.Success, &run.Message, &run.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}

	if run.Transitions, err = s.transitions(ctx, id); err != nil {
		return Run{}, fmt.Errorf("get run %s: transitions: %w", id, err)
	}
	if run.Values, err = s.values(ctx, id); err != nil {
		return Run{}, fmt.Errorf("get run %s: values: %w", id, err)
	}

	seenState := map[string]bool{}
	seenPlayer := map[string]bool{}
	for _, v := range run.Values {
		if !seenState[v.State] {
			seenState[v.State] = true
			run.States = append(run.States, v.State)
		}
		if !seenPlayer[v.Player] {
			seenPlayer[v.Player] = true
			run.Players = append(run.Players, v.Player)
		}
	}

	return run, nil
}

// ListRuns returns run summaries ordered by seq, without matrix or values.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, experiment, mode, discounting, success, message, seq
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Experiment, &run.Mode, &run.Discounting, &run.Success, &run.Message, &run.Seq); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// transitions reads the matrix of a run in state order. Rows are closed
// before returning; the store holds a single connection.
func (s *Store) transitions(ctx context.Context, id string) ([]TransitionProb, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_state, to_state, prob
		FROM transition_probs WHERE run_id = ?
		ORDER BY from_idx ASC, to_idx ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TransitionProb
	for rows.Next() {
		var tp TransitionProb
		if err := rows.Scan(&tp.From, &tp.To, &tp.Prob); err != nil {
			return nil, err
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}

func (s *Store) values(ctx context.Context, id string) ([]Value, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state, player, value, payoff
		FROM "values" WHERE run_id = ?
		ORDER BY state_idx ASC, player_idx ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Value
	for rows.Next() {
		var v Value
		if err := rows.Scan(&v.State, &v.Player, &v.Value, &v.Payoff); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func indexOf(labels []string) map[string]int {
	m := make(map[string]int, len(labels))
	for i, l := range labels {
		m[l] = i
	}
	return m
}
