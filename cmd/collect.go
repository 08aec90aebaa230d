package cmd

import (
	"github.com/huangsam/corpusmetrics/core"
	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/internal/store"
	"github.com/spf13/cobra"
)

// collectCmd computes a per-file metric over every repository of a corpus.
var collectCmd = &cobra.Command{
	Use:   "collect [corpus-root]",
	Short: "Count a keyword in every source file of an owner/repo corpus.",
	Long: `Walk a corpus laid out as <root>/<owner>/<repo>/... and compute one metric
value per source file, producing a narrow table of (repository, file, value).

The metric counts whole-word occurrences of --keyword in files whose extension
matches --ext. Directory listing, file reads and analysis all run concurrently,
bounded by --concurrency. Output order is stable: sorted by repository, then file.

Directories that cannot be listed are reported and skipped. A file that cannot be
read aborts the run unless --on-file-error skip is given.

Examples:
  # Count null references in all Java files
  corpusmetrics collect ./corpus --output-file nullReferences.csv

  # Count a different keyword, ignoring comments
  corpusmetrics collect ./corpus --keyword unsafe --ext .rs --metric unsafeBlocks --strip-comments

  # Keep going past unreadable files and track the run in SQLite
  corpusmetrics collect ./corpus --on-file-error skip --store-backend sqlite

  # Export as Parquet for DuckDB
  corpusmetrics collect ./corpus --output parquet --output-file entries.parquet`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCollect(rootCtx, cfg, store.Runs()); err != nil {
			contract.LogFatal("Cannot collect metrics", err)
		}
	},
}
