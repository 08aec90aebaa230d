package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of a written table.
	OutputMode string

	// DatabaseBackend represents the database backend for run tracking.
	DatabaseBackend string

	// DiagnosticKind classifies a non-fatal, path-level finding.
	DiagnosticKind string

	// FileErrorPolicy decides what a file-level read or analysis failure does to a run.
	FileErrorPolicy string

	// DuplicatePolicy decides what a duplicate join key does while indexing.
	DuplicatePolicy string

	// KeyLayout describes where the composite join key lives inside a row.
	KeyLayout string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv" // default
	ParquetOut OutputMode = "parquet"
	JSONOut    OutputMode = "json"
)

// All run store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// All diagnostic kinds.
const (
	SubtreeDiagnostic   DiagnosticKind = "subtree"   // directory could not be listed
	FileDiagnostic      DiagnosticKind = "file"      // file skipped after a read or analysis failure
	KeyDiagnostic       DiagnosticKind = "key"       // row key could not be parsed
	DuplicateDiagnostic DiagnosticKind = "duplicate" // join key seen more than once
	MissingDiagnostic   DiagnosticKind = "missing"   // key absent from a supplementary table
	ArityDiagnostic     DiagnosticKind = "arity"     // supplementary row too short for its value column
)

// All file error policies.
const (
	AbortOnFileError FileErrorPolicy = "abort" // default
	SkipOnFileError  FileErrorPolicy = "skip"
)

// All duplicate key policies.
const (
	WarnOnDuplicate DuplicatePolicy = "warn" // default, last write wins
	FailOnDuplicate DuplicatePolicy = "fail"
)

// All key layouts.
const (
	ColumnsLayout KeyLayout = "columns" // default: repository,file,...
	PathLayout    KeyLayout = "path"    // owner/repo/rel/path,...
)

// Column names used by produced tables.
const (
	RepositoryColumn  = "repository"
	FileColumn        = "file"
	DefaultFill       = "0"
	DefaultMetricName = "nullReferences"
	DefaultKeyword    = "null"
	DefaultExtension  = ".java"
	DefaultShardName  = "all.csv"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	ParquetOut: {},
	JSONOut:    {},
}

// ValidDatabaseBackends lists all valid run store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidFileErrorPolicies lists all valid file error policies.
var ValidFileErrorPolicies = map[FileErrorPolicy]struct{}{
	AbortOnFileError: {},
	SkipOnFileError:  {},
}

// ValidDuplicatePolicies lists all valid duplicate key policies.
var ValidDuplicatePolicies = map[DuplicatePolicy]struct{}{
	WarnOnDuplicate: {},
	FailOnDuplicate: {},
}

// ValidKeyLayouts lists all valid key layouts.
var ValidKeyLayouts = map[KeyLayout]struct{}{
	ColumnsLayout: {},
	PathLayout:    {},
}

// KeyColumns returns how many leading columns hold the join key.
func (k KeyLayout) KeyColumns() int {
	if k == PathLayout {
		return 1
	}
	return 2
}
