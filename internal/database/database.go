package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type Database struct {
	db *sql.DB
}

var globalDB *Database

// Initialize opens the SQLite store and creates the schema. The store backs
// every persisted concern: guild config, whitelists, threat records,
// snapshots, and the incident event log.
func Initialize(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	globalDB = &Database{db: db}

	if err := globalDB.createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// GetDB returns the global database instance, or nil when unavailable.
func GetDB() *Database {
	return globalDB
}

func IsConnected() bool {
	if globalDB == nil || globalDB.db == nil {
		return false
	}
	return globalDB.db.Ping() == nil
}

func Close() error {
	if globalDB != nil && globalDB.db != nil {
		return globalDB.db.Close()
	}
	return nil
}

func (d *Database) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS guild_config (
		guild_id TEXT PRIMARY KEY,
		enabled INTEGER DEFAULT 1,
		alert_channel_id TEXT DEFAULT '',
		created_at INTEGER DEFAULT 0,
		updated_at INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS whitelist (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(guild_id, target_id)
	);

	CREATE INDEX IF NOT EXISTS idx_whitelist_guild ON whitelist(guild_id);

	CREATE TABLE IF NOT EXISTS threat_records (
		id TEXT PRIMARY KEY,
		guild_id TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		threat_type TEXT NOT NULL,
		score INTEGER NOT NULL,
		action_taken INTEGER NOT NULL,
		counts TEXT DEFAULT '{}',
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_threat_records_guild ON threat_records(guild_id);
	CREATE INDEX IF NOT EXISTS idx_threat_records_time ON threat_records(timestamp);

	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		guild_id TEXT NOT NULL,
		snapshot_type TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_guild ON snapshots(guild_id, created_at);

	CREATE TABLE IF NOT EXISTS event_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		threat_type TEXT NOT NULL,
		detection_us INTEGER NOT NULL,
		action_taken TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_event_logs_guild ON event_logs(guild_id);
	`

	_, err := d.db.Exec(schema)
	return err
}

// ErrNotFound is returned by lookups that matched no row.
var ErrNotFound = errors.New("database: not found")

func scanErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
