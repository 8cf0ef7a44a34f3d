package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/expenselab/tracking"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracking server",
	Long: `Serve the experiment tracking API over a local SQLite database.

The analyze stage and the dashboard both talk to this server when their
tracking URI is an http address.

Example:
  expenselab serve --addr :5000 --db expenselab.db`,
	RunE: runServe,
}

var (
	serveAddr string
	serveDB   string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":5000", "listen address")
	serveCmd.Flags().StringVarP(&serveDB, "db", "d", "expenselab.db", "path to the tracking SQLite database")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	addr := serveAddr
	if cfg != nil && !cmd.Flags().Changed("addr") {
		addr = cfg.Server.Addr
	}
	dbPath := serveDB
	if cfg != nil && !cmd.Flags().Changed("db") {
		dbPath = cfg.Server.DBPath
	}

	store, err := tracking.NewSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open tracking db: %w", err)
	}
	defer store.Close()

	srv := tracking.NewServer(store, log)
	if err := srv.ListenAndServe(addr); err != nil {
		return fmt.Errorf("tracking server: %w", err)
	}
	return nil
}
