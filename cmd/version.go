package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/schema"
	"github.com/spf13/cobra"
)

// versionCmd prints build details and the analysis defaults baked into this binary.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of corpusmetrics.",
	Long: `Display the build of corpusmetrics and the defaults it collects with.

Metric tables produced by different builds are only comparable when the keyword,
extension and metric name agree, so those defaults are printed next to the
release, commit and Go runtime.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		printVersion(cmd.OutOrStdout())
	},
}

func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "corpusmetrics %s (%s, built %s, %s)\n", version, commit, date, runtime.Version())
	_, _ = fmt.Fprintf(w, "  Keyword:     %s\n", schema.DefaultKeyword)
	_, _ = fmt.Fprintf(w, "  Extension:   %s\n", schema.DefaultExtension)
	_, _ = fmt.Fprintf(w, "  Metric:      %s\n", schema.DefaultMetricName)
	_, _ = fmt.Fprintf(w, "  Concurrency: %d (max %d)\n", contract.DefaultConcurrency, contract.MaxConcurrency)
}
