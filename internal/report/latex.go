package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/farsight/internal/experiment"
	"github.com/roach88/farsight/internal/game"
	"github.com/roach88/farsight/internal/valuefn"
)

// LaTeXFloatFormat is the number format of every LaTeX cell.
const LaTeXFloatFormat = "%.5f"

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// WriteLaTeX writes tbl as a captioned booktabs table with states as rows
// and players as columns.
func WriteLaTeX(w io.Writer, caption string, tbl *valuefn.Table) error {
	cols := make([]string, len(tbl.Players))
	for i, p := range tbl.Players {
		cols[i] = string(p)
	}
	return WriteLaTeXMatrix(w, caption, tbl.States, cols, tbl.Values)
}

// WriteLaTeXMatrix writes an arbitrary labelled matrix as a captioned table.
func WriteLaTeXMatrix(w io.Writer, caption string, rows, cols []string, m mat.Matrix) error {
	tw := &textWriter{w: w}

	tw.printf("\\begin{table}\n\\centering\n")
	tw.printf("\\caption{%s}\n", latexEscaper.Replace(caption))
	tw.printf("\\begin{tabular}{l%s}\n", strings.Repeat("r", len(cols)))
	tw.printf("\\toprule\n{}")
	for _, c := range cols {
		tw.printf(" & %s", latexEscaper.Replace(c))
	}
	tw.printf(" \\\\\n\\midrule\n")
	for i, r := range rows {
		tw.printf("%s", latexEscaper.Replace(r))
		for j := range cols {
			tw.printf(" & "+LaTeXFloatFormat, clean(m.At(i, j)))
		}
		tw.printf(" \\\\\n")
	}
	tw.printf("\\bottomrule\n\\end{tabular}\n\\end{table}\n")
	return tw.err
}

// WriteLaTeXTables writes V, payoffs, P and geoengineering of res into dir
// as <variable>_<experiment>.tex and returns the written paths.
func WriteLaTeXTables(dir string, res *experiment.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	states := game.StateNames(res.States)
	deployment := mat.NewDense(len(states), 1, nil)
	for i, s := range states {
		deployment.Set(i, 0, res.Deployment[s])
	}

	tables := []struct {
		variable string
		write    func(io.Writer, string) error
	}{
		{"V", func(w io.Writer, caption string) error { return WriteLaTeX(w, caption, res.Values) }},
		{"payoffs", func(w io.Writer, caption string) error { return WriteLaTeX(w, caption, res.Payoffs) }},
		{"P", func(w io.Writer, caption string) error {
			return WriteLaTeXMatrix(w, caption, states, states, res.Transition.P)
		}},
		{"geoengineering", func(w io.Writer, caption string) error {
			return WriteLaTeXMatrix(w, caption, states, []string{"G"}, deployment)
		}},
	}

	var paths []string
	for _, tbl := range tables {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.tex", tbl.variable, res.Name))
		if err := writeFile(path, func(w io.Writer) error {
			return tbl.write(w, fmt.Sprintf("%s: %s", res.Name, tbl.variable))
		}); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
