package cmd

import (
	"fmt"

	"github.com/huangsam/corpusmetrics/core"
	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// tableSetup binds the flags of the running table command before the shared setup.
func tableSetup(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding %s flags: %w", cmd.Name(), err)
	}
	return sharedSetup(rootCtx, cmd, args)
}

// mergeCmd joins narrow metric tables onto a wide table.
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Join narrow metric tables onto a wide table by (repository, file).",
	Long: `Append one column per supplementary metric table to every row of a wide table.

Rows are matched on the normalized (repository, file) key. Every wide row is kept
in its original order; rows without a matching entry, or whose key cannot be
parsed, receive the --fill value and are reported.

--key-layout describes the wide table. Supplements are narrow tables as written
by collect (repository,file,<metric>) unless --narrow-layout says otherwise.

Supplements come from:
- each --narrow table, one column each
- all shards under --shard-root whose name ends in --shard-suffix, combined into one column

Examples:
  # Add a null reference count to a feature table
  corpusmetrics merge --wide features.csv --narrow nullReferences.csv --output-file merged.csv

  # Merge sharded results and name the new column
  corpusmetrics merge --wide features.csv --shard-root results/ --name nullReferences

  # Wide table keyed by a single owner/repo/path column, supplements from collect
  corpusmetrics merge --wide features.csv --narrow a.csv --narrow b.csv --key-layout path`,
	Args:    cobra.NoArgs,
	PreRunE: tableSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMerge(rootCtx, cfg, store.Runs()); err != nil {
			contract.LogFatal("Cannot merge tables", err)
		}
	},
}
