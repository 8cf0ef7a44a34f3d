package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/expenselab/pkg/id"
)

// SQLite is the file-backed tracking store. One writer at a time is
// assumed; the pipeline never has concurrent writers to the same run.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the tracking database at path and applies
// the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open tracking db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) GetOrCreateExperiment(ctx context.Context, name string) (Experiment, error) {
	exp, err := s.getExperiment(ctx, name)
	if err == nil {
		return exp, nil
	}
	if err != sql.ErrNoRows {
		return Experiment{}, err
	}

	exp = Experiment{
		ID:      uuid.NewString(),
		Name:    name,
		Created: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO experiments (experiment_id, name, created)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING`,
		exp.ID, exp.Name, exp.Created,
	)
	if err != nil {
		return Experiment{}, fmt.Errorf("create experiment %q: %w", name, err)
	}

	// Re-read in case a concurrent insert won the conflict.
	exp, err = s.getExperiment(ctx, name)
	if err != nil {
		return Experiment{}, fmt.Errorf("read back experiment %q: %w", name, err)
	}
	return exp, nil
}

func (s *SQLite) getExperiment(ctx context.Context, name string) (Experiment, error) {
	var exp Experiment
	err := s.db.QueryRowContext(ctx, `
		SELECT experiment_id, name, created
		FROM experiments
		WHERE name = ?`, name).Scan(&exp.ID, &exp.Name, &exp.Created)
	return exp, err
}

func (s *SQLite) ListExperiments(ctx context.Context) ([]Experiment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT experiment_id, name, created
		FROM experiments
		ORDER BY created ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Experiment
	for rows.Next() {
		var exp Experiment
		if err := rows.Scan(&exp.ID, &exp.Name, &exp.Created); err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, rows.Err()
}

func (s *SQLite) CreateRun(ctx context.Context, experimentName, runName string) (Run, error) {
	exp, err := s.GetOrCreateExperiment(ctx, experimentName)
	if err != nil {
		return Run{}, err
	}

	run := Run{
		ID:             id.New(),
		ExperimentID:   exp.ID,
		ExperimentName: exp.Name,
		Name:           runName,
		Status:         StatusRunning,
		StartTime:      time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, experiment_id, name, status, start_time)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.ExperimentID, run.Name, run.Status, run.StartTime,
	)
	if err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

func (s *SQLite) EndRun(ctx context.Context, runID string, status RunStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, end_time = ?
		WHERE run_id = ?`,
		status, time.Now().UTC(), runID,
	)
	if err != nil {
		return fmt.Errorf("end run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("end run %s: %w", runID, ErrNotFound)
	}
	return nil
}

func (s *SQLite) GetRun(ctx context.Context, runID string) (Run, error) {
	var (
		run Run
		end sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT r.run_id, r.experiment_id, e.name, r.name, r.status, r.start_time, r.end_time
		FROM runs r JOIN experiments e ON e.experiment_id = r.experiment_id
		WHERE r.run_id = ?`, runID).Scan(
		&run.ID, &run.ExperimentID, &run.ExperimentName, &run.Name,
		&run.Status, &run.StartTime, &end,
	)
	if err == sql.ErrNoRows {
		return Run{}, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return Run{}, err
	}
	if end.Valid {
		run.EndTime = end.Time
	}

	if run.Params, err = s.loadParams(ctx, runID); err != nil {
		return Run{}, err
	}
	if run.Metrics, err = s.loadMetrics(ctx, runID); err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns runs across all experiments, newest first. Ordering
// rides on the run ID: ULIDs sort lexicographically by creation time, with
// sub-millisecond creation order preserved by the monotonic entropy.
func (s *SQLite) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id
		FROM runs r
		ORDER BY r.run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var runID string
		if err := rows.Scan(&runID); err != nil {
			return nil, err
		}
		ids = append(ids, runID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Run, 0, len(ids))
	for _, runID := range ids {
		run, err := s.GetRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

func (s *SQLite) LogParam(ctx context.Context, runID, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO params (run_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(run_id, key) DO UPDATE SET value = excluded.value`,
		runID, key, value,
	)
	if err != nil {
		return fmt.Errorf("log param %s=%s: %w", key, value, err)
	}
	return nil
}

func (s *SQLite) LogMetric(ctx context.Context, runID, key string, value float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metrics (run_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(run_id, key) DO UPDATE SET value = excluded.value`,
		runID, key, value,
	)
	if err != nil {
		return fmt.Errorf("log metric %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) LogArtifact(ctx context.Context, runID, name string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (run_id, name, data) VALUES (?, ?, ?)
		ON CONFLICT(run_id, name) DO UPDATE SET data = excluded.data`,
		runID, name, data,
	)
	if err != nil {
		return fmt.Errorf("log artifact %s: %w", name, err)
	}
	return nil
}

func (s *SQLite) GetArtifact(ctx context.Context, runID, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM artifacts
		WHERE run_id = ? AND name = ?`, runID, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("artifact %s/%s: %w", runID, name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SQLite) loadParams(ctx context.Context, runID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM params WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *SQLite) loadMetrics(ctx context.Context, runID string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM metrics WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var k string
		var v float64
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
