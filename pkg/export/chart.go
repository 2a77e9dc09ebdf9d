package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var chartSeverities = []string{"Error", "Warning", "Info", "Notice"}

// WriteChart renders an HTML bar chart of marker counts per rule source, stacked by
// severity.
func WriteChart(w io.Writer, title string, rows []Row) error {
	counts := map[string]map[string]int{}
	for _, r := range rows {
		if counts[r.Source] == nil {
			counts[r.Source] = map[string]int{}
		}
		counts[r.Source][r.Severity]++
	}
	sources := make([]string, 0, len(counts))
	for s := range counts {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%d markers", len(rows))}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Rule"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Markers"}),
	)
	bar.SetXAxis(sources)
	for _, sev := range chartSeverities {
		data := make([]opts.BarData, 0, len(sources))
		for _, s := range sources {
			data = append(data, opts.BarData{Value: counts[s][sev]})
		}
		bar.AddSeries(sev, data, charts.WithBarChartOpts(opts.BarChart{Stack: "severity"}))
	}
	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
