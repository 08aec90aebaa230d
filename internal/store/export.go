package store

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/internal/parquet"
)

// ExportPaths returns the Parquet files written for an export prefix.
func ExportPaths(outputFile string) (runsFile, entriesFile string) {
	return outputFile + ".runs.parquet", outputFile + ".entries.parquet"
}

// ExecuteRunsExport exports tracked runs and their entries to Parquet files
// next to outputFile, reporting progress to w.
func ExecuteRunsExport(rs contract.RunStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := rs.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total entries: %d\n", status.TotalEntries)

	runs, err := rs.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	entries, err := rs.GetAllEntries()
	if err != nil {
		return fmt.Errorf("failed to retrieve entries: %w", err)
	}

	runsFile, entriesFile := ExportPaths(outputFile)
	runRows := parquet.ConvertRunRecords(runs)
	if err := parquet.WriteRunsParquet(runRows, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runRows), runsFile)

	entryRows := parquet.ConvertEntryRecords(entries)
	if err := parquet.WriteEntriesParquet(entryRows, entriesFile); err != nil {
		return fmt.Errorf("failed to write entries: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d entries to: %s\n", len(entryRows), entriesFile)
	return nil
}
