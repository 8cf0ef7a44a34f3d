package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Well-known artifact names.
const (
	SummaryArtifact   = "summary_stats.json"
	BreakdownArtifact = "spend_breakdown.json"
	RawDataDir        = "raw_expense_data"
	ModelArtifact     = "model/linear_regression.json"
)

// RunInput is everything one logging call persists under a new run.
type RunInput struct {
	Experiment string
	Name       string

	Params  map[string]string
	Metrics map[string]float64

	// Summary is serialized to JSON and uploaded as SummaryArtifact.
	Summary any

	// Breakdown is serialized to JSON and uploaded as BreakdownArtifact.
	Breakdown any

	// RawDataPath, when set, uploads the input dataset under RawDataDir
	// for traceability back to the exact file analyzed.
	RawDataPath string

	// Model, when non-nil, is serialized and uploaded as ModelArtifact.
	// Model upload is best-effort: a failure is logged, never fatal.
	Model any
}

// LogRun creates a run, writes all params, metrics and artifacts, and
// closes the run. The run always ends: finished when every required write
// landed, failed otherwise (including on panic). The returned ID is valid
// either way once CreateRun succeeded.
func LogRun(ctx context.Context, store Store, in RunInput, log zerolog.Logger) (runID string, err error) {
	run, err := store.CreateRun(ctx, in.Experiment, in.Name)
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	runID = run.ID

	defer func() {
		status := StatusFinished
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during run logging: %v", r)
		}
		if err != nil {
			status = StatusFailed
		}
		// The closing write must land even when ctx was canceled mid-log;
		// otherwise the run is stuck running forever.
		if endErr := store.EndRun(context.WithoutCancel(ctx), runID, status); endErr != nil && err == nil {
			err = fmt.Errorf("end run: %w", endErr)
		}
		log.Info().Str("run_id", runID).Str("status", string(status)).Msg("run closed")
	}()

	for k, v := range in.Params {
		if err = store.LogParam(ctx, runID, k, v); err != nil {
			return runID, err
		}
	}
	for k, v := range in.Metrics {
		if err = store.LogMetric(ctx, runID, k, v); err != nil {
			return runID, err
		}
	}

	if in.Summary != nil {
		if err = uploadSummary(ctx, store, runID, in.Summary); err != nil {
			return runID, err
		}
	}

	if in.Breakdown != nil {
		if err = uploadJSON(ctx, store, runID, BreakdownArtifact, in.Breakdown); err != nil {
			return runID, err
		}
	}

	if in.RawDataPath != "" {
		var data []byte
		data, err = os.ReadFile(in.RawDataPath)
		if err != nil {
			return runID, fmt.Errorf("read raw data: %w", err)
		}
		name := RawDataDir + "/" + filepath.Base(in.RawDataPath)
		if err = store.LogArtifact(ctx, runID, name, data); err != nil {
			return runID, err
		}
	}

	if in.Model != nil {
		// Best effort: some backends cannot take model uploads, and a
		// missing model artifact must not invalidate the run.
		if modelErr := uploadModel(ctx, store, runID, in.Model); modelErr != nil {
			log.Warn().Err(modelErr).Str("run_id", runID).Msg("model upload skipped")
		}
	}

	return runID, nil
}

// uploadSummary serializes the summary through a transient local file, then
// removes it: the store, not the local filesystem, is the system of record.
func uploadSummary(ctx context.Context, store Store, runID string, summary any) error {
	f, err := os.CreateTemp("", "summary_stats_*.json")
	if err != nil {
		return fmt.Errorf("create summary temp file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		f.Close()
		return fmt.Errorf("serialize summary: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close summary temp file: %w", err)
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		return fmt.Errorf("read summary temp file: %w", err)
	}
	if err := store.LogArtifact(ctx, runID, SummaryArtifact, data); err != nil {
		return fmt.Errorf("upload summary: %w", err)
	}
	return nil
}

func uploadModel(ctx context.Context, store Store, runID string, model any) error {
	return uploadJSON(ctx, store, runID, ModelArtifact, model)
}

func uploadJSON(ctx context.Context, store Store, runID, name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize %s: %w", name, err)
	}
	return store.LogArtifact(ctx, runID, name, data)
}
