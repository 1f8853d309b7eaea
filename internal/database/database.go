package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Open creates the parent directory, opens the SQLite database at path and
// runs migrations.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open with DSN options for SQLite pragmas
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// RunMigrations creates all necessary tables
func RunMigrations(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		query_spec TEXT NOT NULL,
		queries INTEGER NOT NULL DEFAULT 0,
		accepted INTEGER NOT NULL DEFAULT 0,
		duplicates INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0,
		new_jobs INTEGER NOT NULL DEFAULT 0,
		total_jobs INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		finished_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS jobs (
		identity TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		search_term TEXT NOT NULL,
		title TEXT NOT NULL,
		publisher TEXT NOT NULL,
		platform TEXT NOT NULL,
		job_type TEXT NOT NULL,
		salary TEXT NOT NULL,
		time_posted TEXT NOT NULL,
		scraped_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_run_id ON jobs(run_id);
	CREATE INDEX IF NOT EXISTS idx_jobs_platform ON jobs(platform);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := db.Exec(schema)
	return err
}
