package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/expenselab/config"
	"github.com/rustyeddy/expenselab/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "expenselab",
	Short: "A synthetic expense data pipeline with experiment tracking",
	Long: `Expenselab is a demonstration expense-analysis pipeline written in Go.

It provides tools for:
  - Generating synthetic restaurant expense datasets (CSV)
  - Analyzing a dataset: summary statistics plus a linear model
    predicting line totals from quantity and unit price
  - Logging parameters, metrics and artifacts to a tracking store
  - Serving a local tracking server over SQLite
  - Rendering a dashboard with run tables and trend charts

Each stage runs standalone; data flows generate -> analyze -> tracking
store, and the dashboard reads back from the store.`,
}

var (
	verbose bool
	cfgFile string
)

// defaultConfigFile is picked up from the working directory when --config is
// not given, matching what `expenselab config init` writes.
const defaultConfigFile = "expenselab.yaml"

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default "+defaultConfigFile+" when present)")
}

// loadConfig resolves the pipeline configuration: the --config file when
// given, else expenselab.yaml in the working directory when present, else
// nil. A nil config means flags and built-in defaults drive everything.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return nil, nil
		}
		path = defaultConfigFile
	}
	return config.LoadFromFile(path)
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return logger.New(level)
}
