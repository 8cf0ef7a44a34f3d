// Package tracking persists experiment runs: string params, numeric
// metrics and named artifact blobs, grouped under named experiments. The
// store is either a local SQLite file or an HTTP client talking to a
// tracking server backed by one; both sides implement Store.
package tracking

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound reports a missing run, experiment or artifact.
var ErrNotFound = errors.New("tracking: not found")

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	StatusRunning  RunStatus = "running"
	StatusFinished RunStatus = "finished"
	StatusFailed   RunStatus = "failed"
)

// Experiment is a named grouping of runs, created implicitly on first use.
type Experiment struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
}

// Run is one logged execution. Params and Metrics are filled on reads;
// artifacts are fetched separately by name.
type Run struct {
	ID             string             `json:"id"`
	ExperimentID   string             `json:"experiment_id"`
	ExperimentName string             `json:"experiment_name"`
	Name           string             `json:"name"`
	Status         RunStatus          `json:"status"`
	StartTime      time.Time          `json:"start_time"`
	EndTime        time.Time          `json:"end_time,omitzero"`
	Params         map[string]string  `json:"params,omitempty"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
}

// Store is the tracking backend contract. Writes are scoped to a run by ID;
// ListRuns spans every experiment, newest first, bounded by limit.
type Store interface {
	GetOrCreateExperiment(ctx context.Context, name string) (Experiment, error)
	ListExperiments(ctx context.Context) ([]Experiment, error)

	CreateRun(ctx context.Context, experimentName, runName string) (Run, error)
	EndRun(ctx context.Context, runID string, status RunStatus) error
	GetRun(ctx context.Context, runID string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	LogParam(ctx context.Context, runID, key, value string) error
	LogMetric(ctx context.Context, runID, key string, value float64) error
	LogArtifact(ctx context.Context, runID, name string, data []byte) error
	GetArtifact(ctx context.Context, runID, name string) ([]byte, error)

	Close() error
}

// Open resolves a tracking URI to a backend: http(s) addresses get an HTTP
// client, anything else is treated as a SQLite database path.
func Open(uri string) (Store, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return NewClient(uri), nil
	}
	return NewSQLite(strings.TrimPrefix(uri, "sqlite://"))
}
