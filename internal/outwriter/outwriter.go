// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"os"

	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/internal/parquet"
	"github.com/huangsam/corpusmetrics/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// jsonEntry is the JSON shape of one narrow table row.
type jsonEntry struct {
	Repository string  `json:"repository"`
	File       string  `json:"file"`
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
}

// jsonTable is the JSON shape of a wide table.
type jsonTable struct {
	Header []string   `json:"header,omitempty"`
	Rows   [][]string `json:"rows"`
}

// WriteNarrow writes the entries of a collect run. CSV output is the narrow table
// rendered by the table codec; JSON and Parquet keep numeric values typed.
func (ow *OutWriter) WriteNarrow(table schema.MetricTable, entries []schema.MetricEntry, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		rows := make([]jsonEntry, len(entries))
		for i, e := range entries {
			rows[i] = jsonEntry{Repository: e.Repository, File: e.File, Metric: cfg.MetricName, Value: e.Value}
		}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON")
	case schema.ParquetOut:
		if err := parquet.WriteEntriesParquet(parquet.ConvertEntries(entries, cfg.MetricName), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		announce("Wrote Parquet", cfg.OutputFile)
		return nil
	default:
		if err := writeRecords(cfg.OutputFile, table.Records()); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
		return nil
	}
}

// WriteTable writes a merged or compressed table. keyColumns tells the Parquet
// writer how many leading columns form the row key.
func (ow *OutWriter) WriteTable(table schema.MetricTable, keyColumns int, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, jsonTable{Header: table.Header, Rows: table.Rows})
		}, "Wrote JSON")
	case schema.ParquetOut:
		if err := parquet.WriteCellsParquet(parquet.ConvertTable(table, keyColumns), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		announce("Wrote Parquet", cfg.OutputFile)
		return nil
	default:
		if err := writeRecords(cfg.OutputFile, table.Records()); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
		return nil
	}
}

// GetMaxTablePathWidth calculates the maximum width for paths in summary tables
// based on the terminal width.
func GetMaxTablePathWidth() int {
	termWidth := 80 // Conservative default for narrow terminals and CI
	if detected, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && detected > 0 {
		termWidth = detected
	}

	// Reserve space for the count columns, borders and padding
	available := termWidth - 45
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}

// StdoutIsTerminal reports whether stdout is attached to a terminal.
func StdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
