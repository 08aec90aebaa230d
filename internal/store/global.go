package store

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/corpusmetrics/internal/contract"
	"github.com/huangsam/corpusmetrics/schema"
)

// Global run store for main logic.
var (
	mu        sync.RWMutex
	runs      contract.RunStore
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStore initializes the global run store. An empty or none backend
// installs a no-op store.
func InitStore(backend schema.DatabaseBackend, connStr string) error {
	var initErr error
	initOnce.Do(func() {
		s, err := NewRunStore(backend, connStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize run store: %w", err)
			return
		}
		mu.Lock()
		runs = s
		mu.Unlock()
	})
	return initErr
}

// Runs returns the global run store, or a no-op store before InitStore.
func Runs() contract.RunStore {
	mu.RLock()
	defer mu.RUnlock()
	if runs == nil {
		return &RunStoreImpl{backend: schema.NoneBackend}
	}
	return runs
}

// CloseStore should be called on application shutdown.
func CloseStore() {
	closeOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if runs != nil {
			_ = runs.Close()
		}
	})
}

// ClearRuns removes all tracked data for the backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the run tables.
// For NoneBackend, it does nothing.
func ClearRuns(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		path := connStr
		if path == "" {
			path = contract.GetDBFilePath()
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", path, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		driverName, err := driverFor(backend)
		if err != nil {
			return err
		}
		for _, table := range []string{entriesTable, runsTable, migrationsTable} {
			if err := dropSQLTable(driverName, connStr, quoteTableName(table, backend)); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend, "":
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// dropSQLTable connects to the SQL database and drops the table if it exists.
func dropSQLTable(driverName, connStr, quotedTable string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}
	if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", quotedTable, err)
	}
	return nil
}
