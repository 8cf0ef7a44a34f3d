// Package dashboard builds a read-only tabular view over every run in the
// tracking store and renders it as a text report or a chart page. It never
// writes to the store.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/expenselab/tracking"
)

// Defaults for run retrieval and summary enrichment.
const (
	DefaultMaxRuns      = 100
	DefaultFetchWorkers = 4
	DefaultFetchTimeout = 5 * time.Second
)

// Field prefixes disambiguate params, metrics and summary-document fields
// in the flattened row.
const (
	ParamPrefix   = "param."
	MetricPrefix  = "metric."
	SummaryPrefix = "summary."
)

// Row is one run, flattened. Fields holds prefixed params, metrics and
// (when the summary artifact was retrievable) summary values as display
// strings; Metrics keeps the numeric values for charting.
type Row struct {
	RunID      string
	StartTime  time.Time
	Experiment string
	RunName    string
	Fields     map[string]string
	Metrics    map[string]float64
}

// Table is the flattened view, newest run first.
type Table struct {
	Rows []Row
}

// Loader fetches and caches the run table. The cache lives until
// Invalidate is called; staleness across a session is acceptable by
// design, repeated renders must not re-hit the store.
type Loader struct {
	store tracking.Store
	log   zerolog.Logger

	maxRuns      int
	fetchWorkers int
	fetchTimeout time.Duration

	mu     sync.Mutex
	cached *Table
}

// Options tune the Loader. Zero values fall back to the defaults above.
type Options struct {
	MaxRuns      int
	FetchWorkers int
	FetchTimeout time.Duration
}

// NewLoader builds a Loader over store.
func NewLoader(store tracking.Store, opts Options, log zerolog.Logger) *Loader {
	if opts.MaxRuns <= 0 {
		opts.MaxRuns = DefaultMaxRuns
	}
	if opts.FetchWorkers <= 0 {
		opts.FetchWorkers = DefaultFetchWorkers
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}

	return &Loader{
		store:        store,
		log:          log,
		maxRuns:      opts.MaxRuns,
		fetchWorkers: opts.FetchWorkers,
		fetchTimeout: opts.FetchTimeout,
	}
}

// LoadAllRuns returns the cached table, or enumerates every run (bounded,
// newest first) and enriches each row with its summary artifact. Store
// enumeration failures are errors; per-run artifact failures only leave
// that row's summary fields empty.
func (l *Loader) LoadAllRuns(ctx context.Context) (*Table, error) {
	l.mu.Lock()
	if l.cached != nil {
		t := l.cached
		l.mu.Unlock()
		return t, nil
	}
	l.mu.Unlock()

	runs, err := l.store.ListRuns(ctx, l.maxRuns)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	table := &Table{Rows: make([]Row, len(runs))}
	for i, run := range runs {
		table.Rows[i] = flatten(run)
	}

	l.enrich(ctx, table)

	l.mu.Lock()
	l.cached = table
	l.mu.Unlock()
	return table, nil
}

// Invalidate drops the cached table so the next load re-reads the store.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
}

// enrich fetches each run's summary artifact through a bounded worker pool
// with a per-fetch timeout, so one unreachable artifact cannot stall the
// whole render.
func (l *Loader) enrich(ctx context.Context, table *Table) {
	sem := make(chan struct{}, l.fetchWorkers)
	var wg sync.WaitGroup

	for i := range table.Rows {
		wg.Add(1)
		sem <- struct{}{}
		go func(row *Row) {
			defer wg.Done()
			defer func() { <-sem }()

			fetchCtx, cancel := context.WithTimeout(ctx, l.fetchTimeout)
			defer cancel()

			summary, ok := l.fetchSummary(fetchCtx, row.RunID)
			if !ok {
				return
			}
			for k, v := range summary {
				row.Fields[SummaryPrefix+k] = v
			}
		}(&table.Rows[i])
	}
	wg.Wait()
}

// fetchSummary is optional enrichment: absence and failure both come back
// as ok=false, never as a panic or a dropped row.
func (l *Loader) fetchSummary(ctx context.Context, runID string) (map[string]string, bool) {
	data, err := l.store.GetArtifact(ctx, runID, tracking.SummaryArtifact)
	if err != nil {
		l.log.Debug().Err(err).Str("run_id", runID).Msg("summary artifact unavailable")
		return nil, false
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		l.log.Warn().Err(err).Str("run_id", runID).Msg("malformed summary artifact")
		return nil, false
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = formatScalar(v)
	}
	return out, true
}

func flatten(run tracking.Run) Row {
	fields := make(map[string]string, len(run.Params)+len(run.Metrics))
	for k, v := range run.Params {
		fields[ParamPrefix+k] = v
	}
	for k, v := range run.Metrics {
		fields[MetricPrefix+k] = formatFloat(v)
	}

	return Row{
		RunID:      run.ID,
		StartTime:  run.StartTime,
		Experiment: run.ExperimentName,
		RunName:    run.Name,
		Fields:     fields,
		Metrics:    run.Metrics,
	}
}

// Columns returns the union of field names across all rows, sorted, for
// stable table rendering. Absent fields render empty, never drop a row.
func (t *Table) Columns() []string {
	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		for k := range row.Fields {
			seen[k] = struct{}{}
		}
	}

	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// MetricSeries extracts (time, value) points for one metric across the
// table, ordered by run start time ascending. Runs without the metric are
// skipped.
func (t *Table) MetricSeries(metric string) ([]time.Time, []float64) {
	type point struct {
		t time.Time
		v float64
	}

	var pts []point
	for _, row := range t.Rows {
		if v, ok := row.Metrics[metric]; ok {
			pts = append(pts, point{row.StartTime, v})
		}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].t.Before(pts[j].t) })

	times := make([]time.Time, len(pts))
	values := make([]float64, len(pts))
	for i, p := range pts {
		times[i] = p.t
		values[i] = p.v
	}
	return times, values
}

// SummaryListing returns (start time, value) pairs of one summary field per
// run, oldest first, skipping rows where enrichment did not land.
func (t *Table) SummaryListing(field string) []ListedValue {
	var out []ListedValue
	for _, row := range t.Rows {
		if v, ok := row.Fields[SummaryPrefix+field]; ok && v != "" {
			out = append(out, ListedValue{StartTime: row.StartTime, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// ListedValue is one entry of a categorical summary-field listing.
type ListedValue struct {
	StartTime time.Time
	Value     string
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return formatFloat(x)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(b)
	}
}
