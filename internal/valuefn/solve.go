// Package valuefn solves the discounted value functions of a coalition game
// for a fixed transition matrix.
//
// For each player the value vector V satisfies
//
//	V = (1−γ)·payoffs + γ·P·V
//
// which is solved as the linear system (γP − I)·V = −(1−γ)·payoffs.
package valuefn

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/farsight/internal/game"
)

// ResidualTolerance bounds ‖A·V − b‖∞ for an accepted solution.
const ResidualTolerance = 1e-9

// absorbingTolerance decides when P[s][s] is treated as exactly 1.
const absorbingTolerance = 1e-12

// Solve returns the value vector of one player.
//
// Rows of absorbing states (P[s][s] = 1) are solved as V[s] = payoff[s]. That
// is the same equation divided by (γ − 1), so the solution is unchanged, but
// an identity P returns the payoffs bit for bit.
func Solve(p mat.Matrix, payoffs []float64, discount float64) ([]float64, error) {
	if !(discount > 0 && discount < 1) {
		return nil, game.NewConfigurationError(fmt.Sprintf("discount factor %v must be in (0,1)", discount))
	}
	rows, cols := p.Dims()
	if rows != cols {
		return nil, game.NewConfigurationError(fmt.Sprintf("transition matrix must be square, got %dx%d", rows, cols))
	}
	if rows != len(payoffs) {
		return nil, game.NewConfigurationError(fmt.Sprintf("transition matrix has %d states but %d payoffs were given", rows, len(payoffs)))
	}
	n := rows

	a := mat.NewDense(n, n, nil)
	b := mat.NewVecDense(n, nil)
	pinned := make([]bool, n)
	for i := 0; i < n; i++ {
		if math.Abs(p.At(i, i)-1) <= absorbingTolerance {
			pinned[i] = true
			a.Set(i, i, 1)
			b.SetVec(i, payoffs[i])
			continue
		}
		for j := 0; j < n; j++ {
			v := discount * p.At(i, j)
			if i == j {
				v--
			}
			a.Set(i, j, v)
		}
		b.SetVec(i, -(1-discount)*payoffs[i])
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, game.NewNumericalError("value function system is singular", map[string]string{
				"error": err.Error(),
			})
		}
		// Ill-conditioned; the residual check below decides.
	}

	v := make([]float64, n)
	for i := range v {
		if pinned[i] {
			v[i] = payoffs[i]
		} else {
			v[i] = x.AtVec(i)
		}
	}

	if r := Residual(p, payoffs, discount, v); !(r <= ResidualTolerance) {
		return nil, game.NewNumericalError("value function solve residual exceeds tolerance", map[string]string{
			"residual":  fmt.Sprintf("%g", r),
			"tolerance": fmt.Sprintf("%g", ResidualTolerance),
		})
	}
	return v, nil
}

// Residual returns ‖(γP − I)·v + (1−γ)·payoffs‖∞.
func Residual(p mat.Matrix, payoffs []float64, discount float64, v []float64) float64 {
	n, _ := p.Dims()
	var worst float64
	for i := 0; i < n; i++ {
		sum := (1 - discount) * payoffs[i]
		for j := 0; j < n; j++ {
			sum += discount * p.At(i, j) * v[j]
		}
		sum -= v[i]
		if d := math.Abs(sum); d > worst || math.IsNaN(d) {
			worst = d
		}
	}
	return worst
}

// SolveAll solves every player's value vector concurrently. The result has
// the same states and players as payoffs.
func SolveAll(ctx context.Context, p mat.Matrix, payoffs *Table, discount float64) (*Table, error) {
	if payoffs == nil || payoffs.Values == nil {
		return nil, game.NewConfigurationError("payoff table is empty")
	}
	out := NewTable(payoffs.States, payoffs.Players)

	g, ctx := errgroup.WithContext(ctx)
	for j, player := range payoffs.Players {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := Solve(p, payoffs.Column(player), discount)
			if err != nil {
				return fmt.Errorf("player %s: %w", player, err)
			}
			// Each goroutine owns column j.
			out.Values.SetCol(j, v)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
