package dashboard

import (
	"io"
	"text/template"
	"time"
)

var reportFuncs = template.FuncMap{
	"field": func(row Row, name string) string { return row.Fields[name] },
	"short": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
}

// ReportTemplate renders the run table as a plain-text report for terminal
// use. Columns follow Table.Columns order.
const ReportTemplate = `EXPENSE RUNS ({{len .Table.Rows}} shown, newest first)
{{- if not .Table.Rows}}
  no runs recorded yet
{{- end}}
{{- range .Table.Rows}}

run     {{.RunID}}
  when        {{short .StartTime}}
  experiment  {{.Experiment}}{{if .RunName}} ({{.RunName}}){{end}}
{{- $row := .}}
{{- range $col := $.Columns}}
{{- with field $row $col}}
  {{printf "%-28s" $col}}{{.}}
{{- end}}
{{- end}}
{{- end}}

TOP PRODUCT PER RUN
{{- if not .TopProducts}}
  no summary data available
{{- end}}
{{- range .TopProducts}}
  {{short .StartTime}}  {{.Value}}
{{- end}}
`

type reportData struct {
	Table       *Table
	Columns     []string
	TopProducts []ListedValue
}

// WriteReport renders the text report for the table to w.
func WriteReport(w io.Writer, table *Table) error {
	t, err := template.New("report").Funcs(reportFuncs).Parse(ReportTemplate)
	if err != nil {
		return err
	}

	return t.Execute(w, reportData{
		Table:       table,
		Columns:     table.Columns(),
		TopProducts: table.SummaryListing("top_product_category"),
	})
}
