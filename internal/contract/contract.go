// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/corpusmetrics/schema"
)

// RunStore tracks collect runs and the entries they produced.
// This allows the pipeline to be tested without a real database.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID.
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// RecordEntries stores the metric entries produced by a run.
	RecordEntries(runID int64, metric string, entries []schema.MetricEntry) error

	// EndRun updates the run with completion counters.
	EndRun(runID int64, endTime time.Time, totalRepos, totalFiles, totalDiagnostics int) error

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// GetAllRuns returns every tracked run, oldest first.
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllEntries returns every stored entry ordered by run, repository and file.
	GetAllEntries() ([]schema.EntryRecord, error)

	// Close closes the underlying connection.
	Close() error
}
