package dashboard

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// chartTime is the x-axis label format.
const chartTime = "2006-01-02 15:04:05"

// MetricChart builds a time-ordered line chart of one metric across runs.
func MetricChart(table *Table, metric, title string) *charts.Line {
	times, values := table.MetricSeries(metric)

	xs := make([]string, len(times))
	data := make([]opts.LineData, len(values))
	for i := range times {
		xs[i] = times[i].Format(chartTime)
		data[i] = opts.LineData{Value: values[i]}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "run start"}),
		charts.WithYAxisOpts(opts.YAxis{Name: metric}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(xs).AddSeries(metric, data)
	return line
}

// RenderCharts writes the standard dashboard chart page: total expense and
// average price per item over time.
func RenderCharts(w io.Writer, table *Table) error {
	page := components.NewPage()
	page.PageTitle = "Expense Tracker Dashboard"
	page.AddCharts(
		MetricChart(table, "total_expense", "Total Expense Over Time"),
		MetricChart(table, "avg_price_per_item", "Average Price Per Item Over Time"),
	)
	return page.Render(w)
}
