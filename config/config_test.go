package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/expenselab/tracking"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Default().Validate())
}

func TestSaveLoadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "expenselab.yaml")

	cfg := Default()
	cfg.Data.Records = 500
	cfg.Tracking.Experiment = "Weekly Expenses"
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSaveLoadJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "expenselab.json")

	cfg := Default()
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.Data.Dir = "" }},
		{"zero records", func(c *Config) { c.Data.Records = 0 }},
		{"empty tracking uri", func(c *Config) { c.Tracking.URI = "" }},
		{"empty experiment", func(c *Config) { c.Tracking.Experiment = "" }},
		{"empty server addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad fetch timeout", func(c *Config) { c.Dashboard.FetchTimeout = "soon" }},
		{"zero max runs", func(c *Config) { c.Dashboard.MaxRuns = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseFetchTimeout(t *testing.T) {
	t.Parallel()

	d := DashboardConfig{FetchTimeout: "2s"}
	got, err := d.ParseFetchTimeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, got)

	d.FetchTimeout = ""
	got, err = d.ParseFetchTimeout()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), got)
}

func TestResolveTrackingURIOrder(t *testing.T) {
	cfg := &Config{Tracking: TrackingConfig{URI: "sqlite://from-config.db"}}

	// Flag wins over everything.
	t.Setenv(EnvTrackingURI, "http://from-env:5000")
	assert.Equal(t, "http://from-flag:5000", ResolveTrackingURI(cfg, "http://from-flag:5000"))

	// Then the environment.
	assert.Equal(t, "http://from-env:5000", ResolveTrackingURI(cfg, ""))

	// Then the config file.
	t.Setenv(EnvTrackingURI, "")
	assert.Equal(t, "sqlite://from-config.db", ResolveTrackingURI(cfg, ""))

	// Then the default local endpoint.
	assert.Equal(t, tracking.DefaultURI, ResolveTrackingURI(nil, ""))
}
