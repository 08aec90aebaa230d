package outwriter

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// DefaultDiagnosticLimit caps the diagnostics listed after a run.
const DefaultDiagnosticLimit = 20

// PrintCollectSummary writes the per-repository table and the final counts of a collect run.
func PrintCollectSummary(w io.Writer, out *schema.CollectOutput, cfg *contract.Config) error {
	if len(out.Repositories) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"#", "Repository", "Files", "Duration"})
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})

		pathWidth := GetMaxTablePathWidth()
		data := make([][]string, 0, len(out.Repositories))
		for i, r := range out.Repositories {
			data = append(data, []string{
				strconv.Itoa(i + 1),
				contract.TruncatePath(r.Repository, pathWidth),
				humanize.Comma(int64(r.Files)),
				r.Duration.Round(time.Millisecond).String(),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Collected %s %s values from %s files in %s repositories\n",
		humanize.Comma(int64(len(out.Entries))), cfg.MetricName,
		humanize.Comma(int64(out.TotalFiles())), humanize.Comma(int64(len(out.Repositories)))); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Run completed in %v with concurrency %d (%s diagnostics)\n",
		out.Duration.Round(time.Millisecond), cfg.Concurrency, humanize.Comma(int64(len(out.Diagnostics)))); err != nil {
		return err
	}
	return nil
}

// PrintMergeSummary writes the counts of a merge run.
func PrintMergeSummary(w io.Writer, summary schema.MergeSummary) error {
	if _, err := fmt.Fprintf(w, "Merged %s supplement(s) into %s rows x %d columns\n",
		humanize.Comma(int64(summary.Supplements)), humanize.Comma(int64(summary.Rows)), summary.Columns); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Matched: %s, defaulted: %s, key errors: %s (%v)\n",
		humanize.Comma(int64(summary.Matched)), humanize.Comma(int64(summary.Defaulted)),
		humanize.Comma(int64(summary.KeyErrors)), summary.Duration.Round(time.Millisecond)); err != nil {
		return err
	}
	return nil
}

// PrintDiagnostics lists up to limit diagnostics followed by a per-kind tally.
// A negative limit lists all of them; zero prints only the tally.
func PrintDiagnostics(w io.Writer, diags []schema.Diagnostic, limit int) error {
	if len(diags) == 0 {
		return nil
	}
	shown := diags
	if limit >= 0 && len(diags) > limit {
		shown = diags[:limit]
	}
	for _, d := range shown {
		if _, err := fmt.Fprintf(w, "%s %s: %s\n", contract.DiagnosticLabel(d.Kind), d.Path, d.Message); err != nil {
			return err
		}
	}
	if rest := len(diags) - len(shown); rest > 0 && len(shown) > 0 {
		if _, err := fmt.Fprintf(w, "... and %s more\n", humanize.Comma(int64(rest))); err != nil {
			return err
		}
	}

	counts := schema.CountDiagnostics(diags)
	kinds := make([]schema.DiagnosticKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		if _, err := fmt.Fprintf(w, "  %s %d\n", contract.DiagnosticLabel(k), counts[k]); err != nil {
			return err
		}
	}
	return nil
}

// PrintRunStatus writes run store status information.
func PrintRunStatus(w io.Writer, status schema.StoreStatus) error {
	if _, err := fmt.Fprintf(w, "Store Backend: %s\n", status.Backend); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Connected: %t\n", status.Connected); err != nil {
		return err
	}
	if !status.Connected {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Total Runs: %s\n", humanize.Comma(status.TotalRuns)); err != nil {
		return err
	}
	if status.TotalRuns > 0 {
		if _, err := fmt.Fprintf(w, "Last Run ID: %d\n", status.LastRunID); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Last Run: %s (%s)\n", status.LastRunTime.Format(time.DateTime), humanize.Time(status.LastRunTime)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Oldest Run: %s\n", status.OldestRun.Format(time.DateTime)); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(status.TableSizes))
	for name := range status.TableSizes {
		names = append(names, name)
	}
	slices.Sort(names)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Table", "Rows"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	data := make([][]string, 0, len(names))
	for _, name := range names {
		data = append(data, []string{name, humanize.Comma(status.TableSizes[name])})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
