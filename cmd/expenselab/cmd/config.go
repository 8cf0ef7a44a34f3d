package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/expenselab/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files for the expense pipeline.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  expenselab config init -o expenselab.yaml
  expenselab config validate -f expenselab.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "expenselab.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Data: %s (%d records, seed %d)\n", cfg.Data.Dir, cfg.Data.Records, cfg.Data.Seed)
	fmt.Printf("  Tracking: %s (experiment %q)\n", cfg.Tracking.URI, cfg.Tracking.Experiment)
	fmt.Printf("  Dashboard: %s (max %d runs)\n", cfg.Dashboard.Addr, cfg.Dashboard.MaxRuns)
	return nil
}
