package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/roach88/farsight/internal/valuefn"
)

// WriteValueChart renders tbl as an HTML page with one bar series per
// player over the states.
func WriteValueChart(w io.Writer, title string, tbl *valuefn.Table) error {
	if tbl == nil || tbl.Values == nil {
		return fmt.Errorf("value chart %q: empty table", title)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "value function per state and player",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)

	bar = bar.SetXAxis(tbl.States)
	for j, p := range tbl.Players {
		items := make([]opts.BarData, 0, len(tbl.States))
		for i := range tbl.States {
			items = append(items, opts.BarData{Value: clean(tbl.Values.At(i, j))})
		}
		bar.AddSeries(string(p), items)
	}

	page := components.NewPage()
	page.AddCharts(bar)
	return page.Render(w)
}
