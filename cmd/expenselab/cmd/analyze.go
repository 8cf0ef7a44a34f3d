package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/expenselab/analyze"
	"github.com/rustyeddy/expenselab/config"
	"github.com/rustyeddy/expenselab/tracking"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <data.csv>",
	Short: "Analyze an expense dataset and log the run",
	Long: `Analyze a generated expense CSV: compute summary statistics, fit a
linear model when at least two rows exist, and log parameters, metrics
and the summary artifact to the tracking store as one run.

The tracking store address resolves from --tracking-uri, then the
` + config.EnvTrackingURI + ` environment variable, then the default
local endpoint.

Example:
  expenselab analyze data/expense_data_20250701.csv --experiment "Expense Report"`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeExperiment  string
	analyzeTrackingURI string
	analyzeUploadRaw   bool
	analyzeSkipModel   bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeExperiment, "experiment", "e", "Expense Report", "experiment name to log the run under")
	analyzeCmd.Flags().StringVarP(&analyzeTrackingURI, "tracking-uri", "t", "", "tracking store URI (http address or sqlite path)")
	analyzeCmd.Flags().BoolVar(&analyzeUploadRaw, "upload-raw", true, "upload the raw CSV as a run artifact")
	analyzeCmd.Flags().BoolVar(&analyzeSkipModel, "skip-model", false, "do not upload the fitted model artifact")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := newLogger()
	dataPath := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	experiment := analyzeExperiment
	if cfg != nil && !cmd.Flags().Changed("experiment") && cfg.Tracking.Experiment != "" {
		experiment = cfg.Tracking.Experiment
	}

	rep, err := analyze.Analyze(dataPath, log)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	uri := config.ResolveTrackingURI(cfg, analyzeTrackingURI)
	store, err := tracking.Open(uri)
	if err != nil {
		return fmt.Errorf("open tracking store %s: %w", uri, err)
	}
	defer store.Close()

	in := tracking.RunInput{
		Experiment: experiment,
		Params:     rep.Params,
		Metrics:    rep.Metrics,
		Summary:    rep.Summary,
		Breakdown:  rep.Breakdown,
	}
	if analyzeUploadRaw {
		in.RawDataPath = rep.DataPath
	}
	if rep.Model != nil && !analyzeSkipModel {
		in.Model = rep.Model
	}

	runID, err := tracking.LogRun(cmd.Context(), store, in, log)
	if err != nil {
		return fmt.Errorf("log run: %w", err)
	}

	fmt.Printf("Run logged: %s\n", runID)
	fmt.Printf("  experiment:  %s\n", experiment)
	fmt.Printf("  model_type:  %s\n", rep.Params["model_type"])
	fmt.Printf("  total_expense:      %.2f\n", rep.Metrics["total_expense"])
	fmt.Printf("  avg_price_per_item: %.2f\n", rep.Metrics["avg_price_per_item"])
	if rmse, ok := rep.Metrics["rmse"]; ok {
		fmt.Printf("  rmse:               %.2f\n", rmse)
		fmt.Printf("  r2_score:           %.4f\n", rep.Metrics["r2_score"])
	}
	return nil
}
