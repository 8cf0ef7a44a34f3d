package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/expenselab/config"
	"github.com/rustyeddy/expenselab/dashboard"
	"github.com/rustyeddy/expenselab/tracking"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render the run dashboard",
	Long: `Load every logged run from the tracking store and present it.

By default this serves a web dashboard with the full run table and trend
charts (total expense and average price per item over run start time).
With --report it writes a plain-text report to stdout instead.

Examples:
  expenselab dashboard --addr :8600
  expenselab dashboard --report`,
	RunE: runDashboard,
}

var (
	dashboardAddr        string
	dashboardTrackingURI string
	dashboardMaxRuns     int
	dashboardWorkers     int
	dashboardTimeout     time.Duration
	dashboardReport      bool
)

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().StringVarP(&dashboardAddr, "addr", "a", ":8600", "dashboard listen address")
	dashboardCmd.Flags().StringVarP(&dashboardTrackingURI, "tracking-uri", "t", "", "tracking store URI (http address or sqlite path)")
	dashboardCmd.Flags().IntVar(&dashboardMaxRuns, "max-runs", dashboard.DefaultMaxRuns, "maximum runs to retrieve")
	dashboardCmd.Flags().IntVar(&dashboardWorkers, "fetch-workers", dashboard.DefaultFetchWorkers, "concurrent artifact fetches")
	dashboardCmd.Flags().DurationVar(&dashboardTimeout, "fetch-timeout", dashboard.DefaultFetchTimeout, "per-artifact fetch timeout")
	dashboardCmd.Flags().BoolVar(&dashboardReport, "report", false, "print a text report instead of serving the web UI")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	addr := dashboardAddr
	maxRuns := dashboardMaxRuns
	workers := dashboardWorkers
	timeout := dashboardTimeout
	if cfg != nil {
		if !cmd.Flags().Changed("addr") {
			addr = cfg.Dashboard.Addr
		}
		if !cmd.Flags().Changed("max-runs") {
			maxRuns = cfg.Dashboard.MaxRuns
		}
		if !cmd.Flags().Changed("fetch-workers") {
			workers = cfg.Dashboard.FetchWorkers
		}
		if !cmd.Flags().Changed("fetch-timeout") {
			if d, err := cfg.Dashboard.ParseFetchTimeout(); err == nil && d > 0 {
				timeout = d
			}
		}
	}

	uri := config.ResolveTrackingURI(cfg, dashboardTrackingURI)
	store, err := tracking.Open(uri)
	if err != nil {
		return fmt.Errorf("open tracking store %s: %w", uri, err)
	}
	defer store.Close()

	loader := dashboard.NewLoader(store, dashboard.Options{
		MaxRuns:      maxRuns,
		FetchWorkers: workers,
		FetchTimeout: timeout,
	}, log)

	if dashboardReport {
		table, err := loader.LoadAllRuns(cmd.Context())
		if err != nil {
			return fmt.Errorf("load runs: %w", err)
		}
		return dashboard.WriteReport(os.Stdout, table)
	}

	log.Info().Str("addr", addr).Str("tracking_uri", uri).Msg("dashboard listening")
	if err := http.ListenAndServe(addr, dashboard.Handler(loader)); err != nil {
		return fmt.Errorf("dashboard server: %w", err)
	}
	return nil
}
