package dashboard

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"field": func(row Row, name string) string { return row.Fields[name] },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<title>Expense Tracker Dashboard</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 8px; font-size: 13px; }
th { background: #f0f0f0; }
</style>
</head>
<body>
<h1>Expense Tracker Dashboard</h1>
<p><a href="/charts">Trend charts</a> | <a href="/refresh">Refresh data</a></p>
{{if not .Table.Rows}}
<p>No runs found. Run the expense experiment first.</p>
{{else}}
<h2>All Experiment Runs</h2>
<table>
<tr><th>run</th><th>start</th><th>experiment</th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Table.Rows}}
<tr>
<td>{{.RunID}}</td>
<td>{{.StartTime.Format "2006-01-02 15:04:05"}}</td>
<td>{{.Experiment}}</td>
{{$row := .}}{{range $.Columns}}<td>{{field $row .}}</td>{{end}}
</tr>
{{end}}
</table>
{{end}}
</body>
</html>
`))

// Handler serves the dashboard web UI over the loader. All routes are
// read-only against the store; only the in-process cache is mutated.
func Handler(loader *Loader) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		table, err := loader.LoadAllRuns(req.Context())
		if err != nil {
			http.Error(w, "load runs: "+err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTemplate.Execute(w, reportData{
			Table:   table,
			Columns: table.Columns(),
		}); err != nil {
			loader.log.Error().Err(err).Msg("render index")
		}
	})

	r.Get("/charts", func(w http.ResponseWriter, req *http.Request) {
		table, err := loader.LoadAllRuns(req.Context())
		if err != nil {
			http.Error(w, "load runs: "+err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := RenderCharts(w, table); err != nil {
			loader.log.Error().Err(err).Msg("render charts")
		}
	})

	// Explicit cache invalidation: the next page load re-reads the store.
	r.Get("/refresh", func(w http.ResponseWriter, req *http.Request) {
		loader.Invalidate()
		http.Redirect(w, req, "/", http.StatusSeeOther)
	})

	return r
}
