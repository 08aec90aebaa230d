// Package schema has the data types shared by the crawler, pipeline, merge engine and stores.
package schema

import (
	"fmt"
	"time"
)

// Repository is one owner/repo subtree of the corpus.
type Repository struct {
	ID   string // owner/repo, forward slashes
	Root string // absolute path to the repository directory
}

// FileRecord is a single analyzable file discovered during a run.
type FileRecord struct {
	AbsPath string // absolute path on disk
	RelPath string // path relative to the repository root, with a leading slash
}

// MetricEntry is one (repository, file, value) triple.
// The pair (Repository, File) is the join key and is unique within a produced table.
type MetricEntry struct {
	Repository string  `json:"repository"`
	File       string  `json:"file"`
	Value      float64 `json:"value"`
}

// Diagnostic is a path-level finding that did not abort the run.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Path    string         `json:"path"`
	Message string         `json:"message"`
}

// String renders the diagnostic for console output.
func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Path, d.Message)
}

// NewDiagnostic builds a diagnostic from an error.
func NewDiagnostic(kind DiagnosticKind, path string, err error) Diagnostic {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Diagnostic{Kind: kind, Path: path, Message: msg}
}

// RepositoryResult holds per-repository counters from a collect run.
type RepositoryResult struct {
	Repository string        `json:"repository"`
	Files      int           `json:"files"`
	Duration   time.Duration `json:"duration"`
}

// CollectOutput is the result of one MetricsPipeline run.
type CollectOutput struct {
	Entries      []MetricEntry      `json:"entries"`
	Repositories []RepositoryResult `json:"repositories"`
	Diagnostics  []Diagnostic       `json:"diagnostics"`
	Duration     time.Duration      `json:"duration"`
}

// TotalFiles returns the number of analyzed files across repositories.
func (o *CollectOutput) TotalFiles() int {
	total := 0
	for _, r := range o.Repositories {
		total += r.Files
	}
	return total
}

// RunRecord represents a row from the corpusmetrics_runs table.
type RunRecord struct {
	RunID            int64
	StartTime        time.Time
	EndTime          *time.Time
	RunDurationMs    *int32
	TotalRepos       int32
	TotalFiles       int32
	TotalDiagnostics int32
	ConfigParams     *string
}

// EntryRecord represents a row from the corpusmetrics_entries table.
type EntryRecord struct {
	RunID      int64
	Repository string
	File       string
	Metric     string
	Value      float64
}

// StoreStatus holds status information about the run store.
type StoreStatus struct {
	Backend      string
	Connected    bool
	TotalRuns    int64
	LastRunID    int64
	LastRunTime  time.Time
	OldestRun    time.Time
	TotalEntries int64
	TableSizes   map[string]int64
}

// MergeSummary holds the counters of one merge or compress run.
type MergeSummary struct {
	Rows        int           `json:"rows"`
	Columns     int           `json:"columns"`
	Supplements int           `json:"supplements"`
	Matched     int           `json:"matched"`
	Defaulted   int           `json:"defaulted"`
	KeyErrors   int           `json:"keyErrors"`
	Diagnostics []Diagnostic  `json:"diagnostics"`
	Duration    time.Duration `json:"duration"`
}
