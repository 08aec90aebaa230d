// Package parquet exports metric entries, joined tables and tracked runs to
// Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/huangsam/corpusmetrics/schema"
	"github.com/parquet-go/parquet-go"
)

// EntryRow is one (repository, file, metric, value) record of a narrow table.
type EntryRow struct {
	// RunID references the tracked run, zero when the entry was not tracked
	RunID int64 `parquet:"run_id,snappy"`

	Repository string  `parquet:"repository,snappy,dict"`
	File       string  `parquet:"file,snappy"`
	Metric     string  `parquet:"metric,snappy,dict"`
	Value      float64 `parquet:"value,snappy"`
}

// CellRow is one cell of a wide table in long format. Wide tables have a
// column set that is only known at runtime, so each cell becomes a row.
type CellRow struct {
	// Row is the zero-based row index in the source table
	Row        int64  `parquet:"row,snappy"`
	Repository string `parquet:"repository,snappy,dict"`
	File       string `parquet:"file,snappy"`
	Column     string `parquet:"column,snappy,dict"`
	Value      string `parquet:"value,snappy"`

	// Numeric holds Value parsed as a number when possible
	Numeric *float64 `parquet:"numeric,optional,snappy"`
}

// RunRow represents a single tracked collect run.
// This struct maps to the corpusmetrics_runs database table.
type RunRow struct {
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	TotalRepos       int32 `parquet:"total_repos,snappy"`
	TotalFiles       int32 `parquet:"total_files,snappy"`
	TotalDiagnostics int32 `parquet:"total_diagnostics,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// writeRows writes data to outputPath using struct schema inference.
func writeRows[T any](data []T, outputPath string) (err error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteEntriesParquet writes narrow table entries to a Parquet file.
func WriteEntriesParquet(data []EntryRow, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteCellsParquet writes long-format wide table cells to a Parquet file.
func WriteCellsParquet(data []CellRow, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteRunsParquet writes tracked runs to a Parquet file.
func WriteRunsParquet(data []RunRow, outputPath string) error {
	return writeRows(data, outputPath)
}

// ConvertEntries converts pipeline entries to EntryRow values for a metric.
func ConvertEntries(entries []schema.MetricEntry, metric string) []EntryRow {
	result := make([]EntryRow, len(entries))
	for i, e := range entries {
		result[i] = EntryRow{Repository: e.Repository, File: e.File, Metric: metric, Value: e.Value}
	}
	return result
}

// ConvertEntryRecords converts stored entries to EntryRow values.
func ConvertEntryRecords(records []schema.EntryRecord) []EntryRow {
	result := make([]EntryRow, len(records))
	for i, r := range records {
		result[i] = EntryRow{RunID: r.RunID, Repository: r.Repository, File: r.File, Metric: r.Metric, Value: r.Value}
	}
	return result
}

// ConvertTable flattens a table into cells. The first keyColumns fields of each
// row are treated as the key: with two key columns they are the repository and
// file, with one it is stored as the file. Columns without a header name are
// called col<N>.
func ConvertTable(table schema.MetricTable, keyColumns int) []CellRow {
	var result []CellRow
	for r, row := range table.Rows {
		var repo, file string
		switch {
		case keyColumns >= 2 && len(row) >= 2:
			repo, file = row[0], row[1]
		case keyColumns == 1 && len(row) >= 1:
			file = row[0]
		}
		for c := keyColumns; c < len(row); c++ {
			cell := CellRow{
				Row:        int64(r),
				Repository: repo,
				File:       file,
				Column:     columnName(table.Header, c),
				Value:      row[c],
			}
			if v, err := strconv.ParseFloat(row[c], 64); err == nil {
				cell.Numeric = &v
			}
			result = append(result, cell)
		}
	}
	return result
}

func columnName(header []string, c int) string {
	if c < len(header) {
		return header[c]
	}
	return "col" + strconv.Itoa(c)
}

// ConvertRunRecords converts schema.RunRecord to RunRow for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []RunRow {
	result := make([]RunRow, len(records))
	for i, record := range records {
		result[i] = RunRow{
			RunID:            record.RunID,
			StartTime:        record.StartTime,
			EndTime:          record.EndTime,
			RunDurationMs:    record.RunDurationMs,
			TotalRepos:       record.TotalRepos,
			TotalFiles:       record.TotalFiles,
			TotalDiagnostics: record.TotalDiagnostics,
			ConfigParams:     record.ConfigParams,
		}
	}
	return result
}
