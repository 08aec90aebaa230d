package cmd

import (
	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/internal/mcp"
	"github.com/huangsam/corpusmetrics/internal/store"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the corpusmetrics MCP server",
	Long:  `Launch an MCP server on stdio that lets AI agents collect, merge and read metric tables via standard tools.`,
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := sharedSetup(rootCtx, cmd, args); err != nil {
			return err
		}
		// Tool calls run without console progress.
		contract.SetQuiet(true)
		return nil
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, store.Runs())
	},
}
