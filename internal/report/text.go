package report

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/farsight/internal/experiment"
	"github.com/roach88/farsight/internal/game"
	"github.com/roach88/farsight/internal/valuefn"
)

// WriteText writes a plain-text report of res.
func WriteText(w io.Writer, res *experiment.Result) error {
	tw := &textWriter{w: w}

	tw.printf("Experiment: %s\n", res.Name)
	if res.Description != "" {
		tw.printf("Description: %s\n", res.Description)
	}
	tw.printf("Mode: %s\n", res.Mode)
	tw.printf("Discounting: %v\n", res.Discount)

	states := game.StateNames(res.States)

	tw.printf("\nTransition probabilities P\n")
	tw.matrix(states, states, res.Transition.P)

	tw.printf("\nPayoffs\n")
	tw.table(res.Payoffs)

	tw.printf("\nValue functions V\n")
	tw.table(res.Values)

	if len(res.Deployment) > 0 {
		tw.printf("\nGeoengineering G\n")
		width := labelWidth(states)
		for _, s := range states {
			if g, ok := res.Deployment[s]; ok {
				tw.printf("%-*s %12.5f\n", width, s, clean(g))
			}
		}
	}

	if len(res.Transition.Warnings) > 0 {
		tw.printf("\nWarnings\n")
		for _, warn := range res.Transition.Warnings {
			tw.printf("  %s: %s\n", warn.Transition, warn.Message)
		}
	}

	tw.printf("\nStatus: %s\n", res.Report.Message)
	return tw.err
}

// textWriter keeps the first write error so the report body stays linear.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *textWriter) table(tbl *valuefn.Table) {
	cols := make([]string, len(tbl.Players))
	for i, p := range tbl.Players {
		cols[i] = string(p)
	}
	t.matrix(tbl.States, cols, tbl.Values)
}

func (t *textWriter) matrix(rows, cols []string, m mat.Matrix) {
	width := labelWidth(rows)

	t.printf("%-*s", width, "")
	for _, c := range cols {
		t.printf(" %12s", c)
	}
	t.printf("\n")

	for i, r := range rows {
		t.printf("%-*s", width, r)
		for j := range cols {
			t.printf(" %12.5f", clean(m.At(i, j)))
		}
		t.printf("\n")
	}
}

func labelWidth(labels []string) int {
	width := 0
	for _, l := range labels {
		if len(l) > width {
			width = len(l)
		}
	}
	return width
}

// clean maps negative zero to zero.
func clean(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}
