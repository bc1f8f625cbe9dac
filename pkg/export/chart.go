package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteChart renders the plan as a standalone HTML page with one line per
// device series.
func WriteChart(w io.Writer, p Plan) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Plan " + p.PlanID,
			Subtitle: fmt.Sprintf("%s, objective %.2f", p.Status, p.Objective),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kWh"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	xAxis := make([]string, p.Hours)
	for h := range xAxis {
		xAxis[h] = p.slot(h).Format("2006-01-02 15:04")
	}
	line.SetXAxis(xAxis)
	for _, c := range p.columns() {
		data := make([]opts.LineData, p.Hours)
		for h := range data {
			data[h] = opts.LineData{Value: p.value(c, h)}
		}
		line.AddSeries(c.String(), data)
	}
	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
