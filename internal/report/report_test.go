package report

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/farsight/internal/config"
	"github.com/roach88/farsight/internal/experiment"
	"github.com/roach88/farsight/internal/game"
	"github.com/roach88/farsight/internal/transition"
	"github.com/roach88/farsight/internal/valuefn"
)

func pairResult(t *testing.T) *experiment.Result {
	t.Helper()
	exp, err := config.Load(filepath.Join("..", "..", "examples", "experiments", "pair.yaml"))
	require.NoError(t, err)
	res, err := experiment.Run(context.Background(), exp, experiment.Options{
		Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	})
	require.NoError(t, err)
	return res
}

func TestWriteTextGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, pairResult(t)))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "pair_text", buf.Bytes())
}

func TestWriteTextListsWarnings(t *testing.T) {
	res := pairResult(t)
	res.Transition.Warnings = append(res.Transition.Warnings, transition.Warning{
		Transition: game.TransitionKey{Proposer: "A", Current: "( )", Next: "(AB)"},
		Message:    "approval committee is empty; transition is never approved",
	})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, res))
	assert.Contains(t, buf.String(), "Warnings\n  proposer A: ( ) -> (AB): approval committee is empty")
}

func TestWriteLaTeX(t *testing.T) {
	tbl := valuefn.NewTable([]string{"( )", "(AB)"}, []game.Player{"A", "B"})
	require.NoError(t, tbl.Set("( )", "A", 64))
	require.NoError(t, tbl.Set("(AB)", "A", 46/0.75))
	require.NoError(t, tbl.Set("(AB)", "B", math.Copysign(0, -1)))

	var buf bytes.Buffer
	require.NoError(t, WriteLaTeX(&buf, "weak_governance: V", tbl))

	want := strings.Join([]string{
		`\begin{table}`,
		`\centering`,
		`\caption{weak\_governance: V}`,
		`\begin{tabular}{lrr}`,
		`\toprule`,
		`{} & A & B \\`,
		`\midrule`,
		`( ) & 64.00000 & 0.00000 \\`,
		`(AB) & 61.33333 & 0.00000 \\`,
		`\bottomrule`,
		`\end{tabular}`,
		`\end{table}`,
		``,
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteLaTeXTables(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	paths, err := WriteLaTeXTables(dir, pairResult(t))
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"V_pair.tex", "payoffs_pair.tex", "P_pair.tex", "geoengineering_pair.tex"}, names)

	data, err := os.ReadFile(filepath.Join(dir, "geoengineering_pair.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `\caption{pair: geoengineering}`)
	assert.Contains(t, string(data), "( ) & 8.00000 \\\\")
	assert.Contains(t, string(data), "(AB) & 6.00000 \\\\")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, pairResult(t)))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "pair", doc.Name)
	assert.Equal(t, "unanimity", doc.Mode)
	assert.Equal(t, []string{"A", "B"}, doc.Players)
	assert.Equal(t, []string{"( )", "(AB)"}, doc.States)
	assert.Equal(t, [][]float64{{1, 0}, {0.5, 0.5}}, doc.Transition)
	assert.Equal(t, [][]float64{{64, 0}, {60, 12}}, doc.Payoffs)
	assert.Equal(t, map[string]float64{"( )": 8, "(AB)": 6}, doc.Deployment)
	assert.True(t, doc.Report.Success)
	assert.NotContains(t, buf.String(), "-0", "negative zero is printed as zero")
}

func TestWriteValueChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteValueChart(&buf, "pair", pairResult(t).Values))

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "(AB)")
}

func TestWriteValueChartEmptyTable(t *testing.T) {
	err := WriteValueChart(&bytes.Buffer{}, "empty", valuefn.NewTable(nil, nil))
	require.Error(t, err)
}
