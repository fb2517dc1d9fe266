// Package db manages the SQLite store holding cached API responses and
// request counters.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New opens the database at path, creating the file, its directory and the
// schema when missing. Every failure is returned as a *StorageError.
func New(path string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, storageErr(path, "create database directory", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storageErr(path, "open database", err)
	}
	// One writer; keeps pragmas and busy handling on a single connection.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, storageErr(path, "connect to database", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, storageErr(path, "configure database", err)
	}

	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, storageErr(path, "create schema", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// configure sets up database pragmas.
func (db *DB) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (db *DB) createSchema() error {
	if err := db.createAPIRequestsTable(); err != nil {
		return err
	}
	return db.createCacheDataTable()
}

func (db *DB) createAPIRequestsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS api_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		endpoint TEXT NOT NULL,
		date TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		UNIQUE(endpoint, date)
	);
	CREATE INDEX IF NOT EXISTS idx_api_requests_date ON api_requests(date);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

func (db *DB) createCacheDataTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS cache_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		data_type TEXT NOT NULL,
		symbol TEXT NOT NULL,
		last_updated TEXT NOT NULL,
		raw_data TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cache_data_key ON cache_data(data_type, symbol);
	`
	_, err := db.ExecContext(context.Background(), query)
	return err
}

// Close closes the database connection gracefully.
func (db *DB) Close() error {
	// Checkpoint WAL before closing
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}
