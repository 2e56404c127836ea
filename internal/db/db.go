package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is the default database location
const DefaultPath = "/var/lib/autosupport/records.db"

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
	path string
}

// New opens or creates the SQLite database at the given path
func New(path string) (*DB, error) {
	if path == "" {
		path = DefaultPath
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// foreign_keys is per connection, so keep a single one
	conn.SetMaxOpenConns(1)

	// Enable foreign keys and WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}

// SchemaVersion returns the highest applied migration
func (d *DB) SchemaVersion() (int, error) {
	var version int
	err := d.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	return version, err
}

// migrate runs the database schema migrations
func (d *DB) migrate() error {
	_, err := d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	version, err := d.SchemaVersion()
	if err != nil {
		return err
	}

	migrations := []string{
		migrationV1,
		migrationV2,
		migrationV3,
	}

	for i, migration := range migrations {
		v := i + 1
		if v <= version {
			continue
		}

		tx, err := d.conn.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(migration); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d failed: %w", v, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

// migrationV1 creates runs, records and their scalar children
const migrationV1 = `
-- One row per ingest invocation
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    input TEXT NOT NULL,
    documents INTEGER DEFAULT 0,
    degraded INTEGER DEFAULT 0,
    duplicates INTEGER DEFAULT 0,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

-- One row per parsed document
CREATE TABLE IF NOT EXISTS records (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES runs(id),
    document TEXT NOT NULL,
    archive TEXT NOT NULL,
    digest TEXT,

    -- Copied out of fields for history queries
    serial TEXT,
    hostname TEXT,
    model TEXT,
    generated_on TEXT,

    error TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);
CREATE INDEX IF NOT EXISTS idx_records_serial ON records(serial);
CREATE INDEX IF NOT EXISTS idx_records_hostname ON records(hostname);
CREATE INDEX IF NOT EXISTS idx_records_digest ON records(digest);

CREATE TABLE IF NOT EXISTS record_fields (
    record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (record_id, name)
);

CREATE TABLE IF NOT EXISTS record_services (
    record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    service TEXT NOT NULL,
    status TEXT NOT NULL,
    PRIMARY KEY (record_id, service)
);
`

// migrationV2 stores decoded tables, rows as JSON
const migrationV2 = `
CREATE TABLE IF NOT EXISTS record_tables (
    id INTEGER PRIMARY KEY,
    record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    family TEXT NOT NULL,
    columns_json TEXT NOT NULL,
    rows_json TEXT NOT NULL,
    row_count INTEGER DEFAULT 0,
    note TEXT
);

CREATE INDEX IF NOT EXISTS idx_record_tables_record ON record_tables(record_id);
CREATE INDEX IF NOT EXISTS idx_record_tables_name ON record_tables(name);
`

// migrationV3 records the volume join mode a record was parsed with
const migrationV3 = `
ALTER TABLE records ADD COLUMN link TEXT NOT NULL DEFAULT 'exact';

CREATE INDEX IF NOT EXISTS idx_records_digest_link ON records(digest, link);
`

// Run is one ingest invocation
type Run struct {
	ID         string
	Input      string
	Documents  int
	Degraded   int
	Duplicates int
	StartedAt  time.Time
	FinishedAt *time.Time
}

// StoredRecord is the summary row of a persisted record
type StoredRecord struct {
	ID          int64
	RunID       string
	Document    string
	Archive     string
	Digest      string
	Link        string
	Serial      string
	Hostname    string
	Model       string
	GeneratedOn string
	Error       string
	CreatedAt   time.Time
}

// Degraded reports whether the record was stored from a failed parse
func (r *StoredRecord) Degraded() bool {
	return r.Error != ""
}

// Table positions that do not belong to the storage table list
const (
	positionCloudProfiles = -2
	positionCloudMovement = -1
)

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
