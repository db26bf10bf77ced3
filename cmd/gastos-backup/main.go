package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gastos/internal/cli"
	"gastos/internal/config"
	applog "gastos/internal/log"
)

var (
	dbPath   string
	logLevel string

	cfg    *config.Config
	logger *applog.Logger

	rootCmd = &cobra.Command{
		Use:   "gastos-backup",
		Short: "Export and restore the expense tracker data",
		Long: `gastos-backup writes every category, expense and monthly budget to a JSON
snapshot, and replaces the stored data with a snapshot.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default: $SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
}

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	if dbPath != "" {
		if err := os.Setenv("SQLITE_DB_PATH", dbPath); err != nil {
			return err
		}
	}
	if logLevel != "" {
		if err := os.Setenv("LOG_LEVEL", logLevel); err != nil {
			return err
		}
	}

	loaded, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if loaded.DataBackend != "sqlite" {
		return fmt.Errorf("backups need the sqlite backend, DATA_BACKEND is %q", loaded.DataBackend)
	}
	// Seeding would leak into an export of an empty store.
	loaded.SeedCategories = false

	cfg = loaded
	logger = cli.SetupLogger(cfg.LogLevel).WithComponent(applog.ComponentBackup)
	return nil
}
