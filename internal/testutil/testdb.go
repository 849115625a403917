// Package testutil provides test helpers: an in-memory database with the
// application schema, a deterministic clock, and mock collaborators.
package testutil

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// NewTestDB creates an in-memory SQLite database with the application schema.
// Returns a database handle that should be closed by the caller.
func NewTestDB() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// initializeSchema creates all required tables for testing. Kept in sync
// with the embedded migrations in internal/db.
func initializeSchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			event_data TEXT NOT NULL,
			event_version INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS playback_progress (
			video_path TEXT PRIMARY KEY,
			position_seconds REAL NOT NULL,
			duration_seconds REAL NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS repair_journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			repair_id TEXT NOT NULL UNIQUE,
			video_path TEXT NOT NULL,
			temp_path TEXT NOT NULL,
			final_path TEXT NOT NULL,
			mode TEXT NOT NULL,
			state TEXT NOT NULL DEFAULT 'transcoding',
			error TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// CountRows returns the row count of a table. Intended for assertions.
func CountRows(db *sql.DB, table string) (int, error) {
	var count int
	err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count) // NOSONAR - test helper, table from caller literal
	return count, err
}
