package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/expenselab/tracking"
)

// EnvTrackingURI overrides the tracking store address when set.
const EnvTrackingURI = "EXPENSELAB_TRACKING_URI"

// Config represents the complete pipeline configuration
type Config struct {
	Data      DataConfig      `json:"data" yaml:"data"`
	Tracking  TrackingConfig  `json:"tracking" yaml:"tracking"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	Dashboard DashboardConfig `json:"dashboard" yaml:"dashboard"`
}

// DataConfig controls synthetic dataset generation
type DataConfig struct {
	Dir     string `json:"dir" yaml:"dir"`
	Records int    `json:"records" yaml:"records"`
	Seed    int64  `json:"seed" yaml:"seed"`
}

// TrackingConfig locates the tracking store and names the experiment runs
// are logged under
type TrackingConfig struct {
	URI        string `json:"uri" yaml:"uri"`
	Experiment string `json:"experiment" yaml:"experiment"`
}

// ServerConfig configures the local tracking server
type ServerConfig struct {
	Addr   string `json:"addr" yaml:"addr"`
	DBPath string `json:"db_path" yaml:"db_path"`
}

// DashboardConfig tunes dashboard retrieval
type DashboardConfig struct {
	Addr         string `json:"addr" yaml:"addr"`
	MaxRuns      int    `json:"max_runs" yaml:"max_runs"`
	FetchWorkers int    `json:"fetch_workers" yaml:"fetch_workers"`
	FetchTimeout string `json:"fetch_timeout" yaml:"fetch_timeout"` // e.g., "5s", "500ms"
}

// ParseFetchTimeout converts the timeout string to time.Duration
func (d DashboardConfig) ParseFetchTimeout() (time.Duration, error) {
	if d.FetchTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(d.FetchTimeout)
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	if c.Data.Records <= 0 {
		return fmt.Errorf("data.records must be positive")
	}
	if c.Tracking.URI == "" {
		return fmt.Errorf("tracking.uri is required")
	}
	if c.Tracking.Experiment == "" {
		return fmt.Errorf("tracking.experiment is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.DBPath == "" {
		return fmt.Errorf("server.db_path is required")
	}
	if c.Dashboard.Addr == "" {
		return fmt.Errorf("dashboard.addr is required")
	}
	if c.Dashboard.MaxRuns <= 0 {
		return fmt.Errorf("dashboard.max_runs must be positive")
	}
	if _, err := c.Dashboard.ParseFetchTimeout(); err != nil {
		return fmt.Errorf("dashboard.fetch_timeout: %w", err)
	}
	return nil
}

// ResolveTrackingURI applies the override order: explicit flag value, then
// environment, then the configured URI (when cfg is non-nil), then the
// default local endpoint.
func ResolveTrackingURI(cfg *Config, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvTrackingURI); env != "" {
		return env
	}
	if cfg != nil && cfg.Tracking.URI != "" {
		return cfg.Tracking.URI
	}
	return tracking.DefaultURI
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Dir:     "data",
			Records: 200,
			Seed:    42,
		},
		Tracking: TrackingConfig{
			URI:        tracking.DefaultURI,
			Experiment: "Expense Report",
		},
		Server: ServerConfig{
			Addr:   ":5000",
			DBPath: "expenselab.db",
		},
		Dashboard: DashboardConfig{
			Addr:         ":8600",
			MaxRuns:      100,
			FetchWorkers: 4,
			FetchTimeout: "5s",
		},
	}
}
