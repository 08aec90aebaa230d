package cmd

import (
	"github.com/huangsam/corpusmetrics/core"
	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/internal/store"
	"github.com/spf13/cobra"
)

// compressCmd drops the key columns of a merged table.
var compressCmd = &cobra.Command{
	Use:   "compress",
	Short: "Drop the leading key columns of a table.",
	Long: `Remove the (repository, file) key columns from a merged table, leaving only the
metric columns. This is useful for handing the table to tools that expect a pure
feature matrix.

Examples:
  # Drop repository and file
  corpusmetrics compress --input merged.csv --output-file matrix.csv

  # Drop a single owner/repo/path key column
  corpusmetrics compress --input merged.csv --key-layout path

  # Read a compressed table and write Parquet
  corpusmetrics compress --input merged.csv.lz4 --output parquet --output-file matrix.parquet`,
	Args:    cobra.NoArgs,
	PreRunE: tableSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCompress(rootCtx, cfg, store.Runs()); err != nil {
			contract.LogFatal("Cannot compress table", err)
		}
	},
}
