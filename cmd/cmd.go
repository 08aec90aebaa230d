// Package cmd defines the command-line interface for corpusmetrics.
package cmd

import (
	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().Int("concurrency", contract.DefaultConcurrency, "Maximum number of concurrent directory, file and shard operations")
	rootCmd.PersistentFlags().StringSlice("ext", []string{schema.DefaultExtension}, "File extensions to analyze")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "Gitignore-style patterns to skip while crawling")
	rootCmd.PersistentFlags().String("metric", schema.DefaultMetricName, "Name of the metric column")
	rootCmd.PersistentFlags().String("keyword", schema.DefaultKeyword, "Keyword to count as a whole word")
	rootCmd.PersistentFlags().Bool("strip-comments", false, "Ignore keywords inside comments")
	rootCmd.PersistentFlags().String("on-file-error", string(schema.AbortOnFileError), "What an unreadable file does to the run: abort or skip")
	rootCmd.PersistentFlags().String("output", string(schema.CSVOut), "Output format: csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("store-backend", string(schema.NoneBackend), "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics in text format to this file after a run")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress, diagnostics and summaries")
	rootCmd.PersistentFlags().String("color", "", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Flags of mergeCmd and compressCmd share names, so they are bound to
	// Viper in tableSetup for whichever command runs.
	mergeCmd.Flags().String("wide", "", "Path to the wide table")
	mergeCmd.Flags().StringSlice("narrow", nil, "Path to a narrow table; repeat for one column each")
	mergeCmd.Flags().String("shard-root", "", "Directory to search for narrow table shards")
	mergeCmd.Flags().String("shard-suffix", schema.DefaultShardName, "File name suffix that marks a shard")
	mergeCmd.Flags().String("fill", schema.DefaultFill, "Value used when a row has no matching entry")
	mergeCmd.Flags().String("duplicates", string(schema.WarnOnDuplicate), "Duplicate key policy: warn or fail")
	mergeCmd.Flags().StringSlice("name", nil, "Column name for each supplement, in order")
	mergeCmd.Flags().String("narrow-layout", string(schema.ColumnsLayout), "Key layout of the narrow tables: columns or path")
	compressCmd.Flags().String("input", "", "Path to the table to compress")
	compressCmd.Flags().Int("drop", 0, "Number of leading key columns to drop (0 = per --key-layout)")
	for _, c := range []*cobra.Command{mergeCmd, compressCmd} {
		c.Flags().String("key-layout", string(schema.ColumnsLayout), "Table key layout: columns or path")
		c.Flags().Bool("no-header", false, "Treat the first record of every table as data")
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
