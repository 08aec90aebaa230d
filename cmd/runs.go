package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/internal/outwriter"
	"github.com/huangsam/corpusmetrics/internal/store"
	"github.com/huangsam/corpusmetrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeFromViper reads and validates the run store settings without the full shared setup.
func storeFromViper() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("store-backend")))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("store-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// runsSetup loads minimal configuration needed for run store operations.
// This is used by commands that need store access without a corpus or tables.
func runsSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeFromViper()
	if err != nil {
		return err
	}
	if err := store.InitStore(backend, connStr); err != nil {
		return err
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// runsMigrateSetup is like runsSetup but does NOT initialize the store or create
// tables, allowing migrations to run on a fresh database.
func runsMigrateSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeFromViper()
	if err != nil {
		return err
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	return nil
}

// runsCmd focuses on run tracking data management.
//
// Note: runs subcommands use minimal initialization (runsSetup) instead of the
// full sharedSetup, so no corpus root or tables are needed.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage tracked collect runs and their exports",
	Long: `Manage the history of collect runs.

When a store backend is configured, every collect run records:
- Run metadata (timestamp, configuration, duration, counters)
- Every (repository, file, metric, value) entry it produced

Supported backends: SQLite, MySQL, PostgreSQL, or None (default, disabled)

Subcommands:
  status  - Show run tracking statistics
  export  - Export runs and entries to Parquet
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  corpusmetrics runs status --store-backend sqlite

  # Export for analysis in pandas/DuckDB
  corpusmetrics runs export --store-backend sqlite --output-file history`,
}

// runsStatusCmd shows run store status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run tracking statistics and connection details",
	Long: `Show the backend, connection health, run counts and table sizes of the run store.

Examples:
  corpusmetrics runs status --store-backend sqlite`,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := store.Runs().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run store status", err)
		}
		if err := outwriter.PrintRunStatus(os.Stdout, status); err != nil {
			contract.LogFatal("Failed to print run store status", err)
		}
	},
}

// runsClearCmd clears all tracked runs.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all tracked runs and entries",
	Long: `Delete all stored runs and their entries.

For SQLite the database file is removed; for MySQL and PostgreSQL the run tables
are dropped.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  corpusmetrics runs export --store-backend sqlite --output-file backup
  corpusmetrics runs clear --store-backend sqlite`,
	PreRunE: runsMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := store.ClearRuns(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear run data", err)
		}
		fmt.Println("Run data cleared successfully.")
	},
}

// runsExportCmd exports tracked runs to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tracked runs and entries to Parquet",
	Long: `Export all stored data to two Parquet files:
- <output-file>.runs.parquet with one row per run
- <output-file>.entries.parquet with one row per metric entry

Requires: --output-file parameter

Examples:
  corpusmetrics runs export --store-backend sqlite --output-file history
  duckdb -c "SELECT metric, avg(value) FROM read_parquet('history.entries.parquet') GROUP BY metric"`,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := store.ExecuteRunsExport(store.Runs(), cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export run data", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  corpusmetrics runs migrate --store-backend postgresql --store-db-connect "$DSN"

  # Migrate to specific version
  corpusmetrics runs migrate --store-backend sqlite --target-version 2

  # Roll back everything
  corpusmetrics runs migrate --store-backend sqlite --target-version 0`,
	PreRunE: runsMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		msg, err := store.Migrate(cfg.StoreBackend, cfg.StoreDBConnect, viper.GetInt("target-version"))
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println(msg)
	},
}
