// tracking/schema.go
package tracking

const Schema = `
CREATE TABLE IF NOT EXISTS experiments (
	experiment_id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	created DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	experiment_id TEXT NOT NULL REFERENCES experiments(experiment_id),
	name TEXT NOT NULL,
	status TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME
);

CREATE TABLE IF NOT EXISTS params (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (run_id, key)
);

CREATE TABLE IF NOT EXISTS metrics (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	key TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (run_id, key)
);

CREATE TABLE IF NOT EXISTS artifacts (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	name TEXT NOT NULL,
	data BLOB NOT NULL,
	PRIMARY KEY (run_id, name)
);

CREATE INDEX IF NOT EXISTS idx_runs_start_time ON runs(start_time);
`
