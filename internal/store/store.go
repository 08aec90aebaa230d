// Package store tracks collect runs and their metric entries in SQL databases.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	// Database drivers, registered as "sqlite", "mysql" and "pgx".
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/schema"
)

// Table names for run tracking.
const (
	runsTable    = "corpusmetrics_runs"
	entriesTable = "corpusmetrics_entries"
)

// entryBatchSize bounds the rows per multi-row INSERT.
const entryBatchSize = 200

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// driverFor returns the database/sql driver name for a backend.
func driverFor(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// openDB opens and pings a database for backend. An empty SQLite connection
// string selects the default database file.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, string, error) {
	driverName, err := driverFor(backend)
	if err != nil {
		return nil, "", err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetDBFilePath()
	}

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("failed to connect to %s database: %w. Verify the database server is running and the connection string is correct", backend, err)
	}
	return db, driverName, nil
}

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (*RunStoreImpl, error) {
	if backend == schema.NoneBackend || backend == "" {
		// No-op store for disabled tracking
		return &RunStoreImpl{backend: schema.NoneBackend}, nil
	}

	db, driverName, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}
	if err := createTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}
	return &RunStoreImpl{db: db, backend: backend, driverName: driverName}, nil
}

// createTables creates the run tracking tables.
func createTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{entriesTable, getCreateEntriesQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for corpusmetrics_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_repos INT NOT NULL DEFAULT 0,
				total_files INT NOT NULL DEFAULT 0,
				total_diagnostics INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_repos INT NOT NULL DEFAULT 0,
				total_files INT NOT NULL DEFAULT 0,
				total_diagnostics INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_repos INTEGER NOT NULL DEFAULT 0,
				total_files INTEGER NOT NULL DEFAULT 0,
				total_diagnostics INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)
	}
}

// getCreateEntriesQuery returns the CREATE TABLE query for corpusmetrics_entries.
func getCreateEntriesQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(entriesTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				repository VARCHAR(200) NOT NULL,
				file VARCHAR(400) NOT NULL,
				metric VARCHAR(100) NOT NULL,
				value DOUBLE NOT NULL,
				PRIMARY KEY (run_id, repository, file, metric)
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				repository TEXT NOT NULL,
				file TEXT NOT NULL,
				metric TEXT NOT NULL,
				value DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (run_id, repository, file, metric)
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				repository TEXT NOT NULL,
				file TEXT NOT NULL,
				metric TEXT NOT NULL,
				value REAL NOT NULL,
				PRIMARY KEY (run_id, repository, file, metric)
			);
		`, quoted)
	}
}

// quoteTableName quotes an identifier for the backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	if backend == schema.MySQLBackend {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// placeholder returns the n-th (1-based) bind parameter for the backend.
func placeholder(backend schema.DatabaseBackend, n int) string {
	if backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

func (s *RunStoreImpl) disabled() bool {
	return s.backend == schema.NoneBackend || s.db == nil
}

// BeginRun creates a new run and returns its unique ID.
func (s *RunStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	if s.disabled() {
		return 0, nil
	}

	var params *string
	if configParams != nil {
		raw, err := json.Marshal(configParams)
		if err != nil {
			return 0, fmt.Errorf("failed to encode config params: %w", err)
		}
		str := string(raw)
		params = &str
	}

	quoted := quoteTableName(runsTable, s.backend)
	if s.backend == schema.PostgreSQLBackend {
		query := fmt.Sprintf("INSERT INTO %s (start_time, config_params) VALUES ($1, $2) RETURNING run_id", quoted)
		var id int64
		if err := s.db.QueryRow(query, startTime, params).Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to begin run: %w", err)
		}
		return id, nil
	}

	query := fmt.Sprintf("INSERT INTO %s (start_time, config_params) VALUES (?, ?)", quoted)
	res, err := s.db.Exec(query, formatTime(startTime, s.backend), params)
	if err != nil {
		return 0, fmt.Errorf("failed to begin run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	return id, nil
}

// RecordEntries stores the entries of a run in batched multi-row inserts inside one transaction.
func (s *RunStoreImpl) RecordEntries(runID int64, metric string, entries []schema.MetricEntry) (err error) {
	if s.disabled() || len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	quoted := quoteTableName(entriesTable, s.backend)
	for start := 0; start < len(entries); start += entryBatchSize {
		batch := entries[start:min(start+entryBatchSize, len(entries))]
		values := make([]string, len(batch))
		args := make([]any, 0, len(batch)*5)
		for i, e := range batch {
			base := i * 5
			values[i] = fmt.Sprintf("(%s, %s, %s, %s, %s)",
				placeholder(s.backend, base+1), placeholder(s.backend, base+2), placeholder(s.backend, base+3),
				placeholder(s.backend, base+4), placeholder(s.backend, base+5))
			args = append(args, runID, e.Repository, e.File, metric, e.Value)
		}
		query := fmt.Sprintf("INSERT INTO %s (run_id, repository, file, metric, value) VALUES %s", quoted, strings.Join(values, ", "))
		if _, err = tx.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to record entries: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entries: %w", err)
	}
	return nil
}

// EndRun updates the run with completion counters.
func (s *RunStoreImpl) EndRun(runID int64, endTime time.Time, totalRepos, totalFiles, totalDiagnostics int) error {
	if s.disabled() {
		return nil
	}

	quoted := quoteTableName(runsTable, s.backend)
	var startTime time.Time
	selectQuery := fmt.Sprintf("SELECT start_time FROM %s WHERE run_id = %s", quoted, placeholder(s.backend, 1))
	if s.backend == schema.SQLiteBackend {
		var raw string
		if err := s.db.QueryRow(selectQuery, runID).Scan(&raw); err != nil {
			return fmt.Errorf("failed to load run %d: %w", runID, err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return fmt.Errorf("failed to parse start_time: %w", err)
		}
		startTime = parsed
	} else if err := s.db.QueryRow(selectQuery, runID).Scan(&startTime); err != nil {
		return fmt.Errorf("failed to load run %d: %w", runID, err)
	}

	durationMs := int32(endTime.Sub(startTime).Milliseconds())
	updateQuery := fmt.Sprintf(
		"UPDATE %s SET end_time = %s, run_duration_ms = %s, total_repos = %s, total_files = %s, total_diagnostics = %s WHERE run_id = %s",
		quoted,
		placeholder(s.backend, 1), placeholder(s.backend, 2), placeholder(s.backend, 3),
		placeholder(s.backend, 4), placeholder(s.backend, 5), placeholder(s.backend, 6),
	)
	if _, err := s.db.Exec(updateQuery, formatTime(endTime, s.backend), durationMs, totalRepos, totalFiles, totalDiagnostics, runID); err != nil {
		return fmt.Errorf("failed to end run %d: %w", runID, err)
	}
	return nil
}

// scanTime reads a time column, which SQLite stores as RFC3339 text.
func (s *RunStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	if s.backend == schema.SQLiteBackend {
		var raw string
		if err := row.Scan(&raw); err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.RFC3339Nano, raw)
	}
	var t time.Time
	err := row.Scan(&t)
	return t, err
}

// GetStatus returns status information about the run store.
func (s *RunStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}
	if s.disabled() {
		return status, nil
	}

	runs := quoteTableName(runsTable, s.backend)
	if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		if err := s.db.QueryRow(fmt.Sprintf("SELECT MAX(run_id) FROM %s", runs)).Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run id: %w", err)
		}
		last, err := s.scanTime(s.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", runs)))
		if err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		status.LastRunTime = last
		oldest, err := s.scanTime(s.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runs)))
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRun = oldest
	}

	for _, table := range []string{runsTable, entriesTable} {
		var count int64
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, s.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalEntries = status.TableSizes[entriesTable]
	return status, nil
}

// GetAllRuns retrieves all runs from the store, oldest first.
func (s *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if s.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, start_time, end_time, run_duration_ms, total_repos, total_files,
    total_diagnostics, config_params FROM %s ORDER BY run_id`, quoteTableName(runsTable, s.backend))
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		switch s.backend {
		case schema.SQLiteBackend:
			var startStr string
			var endStr *string
			if err := rows.Scan(&record.RunID, &startStr, &endStr, &record.RunDurationMs, &record.TotalRepos,
				&record.TotalFiles, &record.TotalDiagnostics, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			start, err := time.Parse(time.RFC3339Nano, startStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			record.StartTime = start
			if endStr != nil {
				end, err := time.Parse(time.RFC3339Nano, *endStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &end
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.StartTime, &record.EndTime, &record.RunDurationMs, &record.TotalRepos,
				&record.TotalFiles, &record.TotalDiagnostics, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllEntries retrieves every stored entry ordered by run, repository and file.
func (s *RunStoreImpl) GetAllEntries() ([]schema.EntryRecord, error) {
	if s.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, repository, file, metric, value FROM %s ORDER BY run_id, repository, file, metric",
		quoteTableName(entriesTable, s.backend))
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.EntryRecord
	for rows.Next() {
		var record schema.EntryRecord
		if err := rows.Scan(&record.RunID, &record.Repository, &record.File, &record.Metric, &record.Value); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return results, nil
}

// Close closes the underlying connection.
func (s *RunStoreImpl) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
