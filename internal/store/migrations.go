package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS sensors (
    sensor_id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    name TEXT,
    latitude REAL,
    longitude REAL,
    city TEXT,
    active BOOLEAN DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS readings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    sensor_id TEXT NOT NULL,
    observed_at DATETIME NOT NULL,
    pm25 REAL,
    raw_json TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(sensor_id, observed_at)
);

CREATE TABLE IF NOT EXISTS hotspots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    confidence INTEGER NOT NULL,
    frp REAL,
    acquired_at DATETIME NOT NULL,
    satellite TEXT,
    instrument TEXT,
    day_night TEXT,
    product TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(latitude, longitude, acquired_at, satellite)
);

CREATE TABLE IF NOT EXISTS daily_air_summaries (
    date DATE NOT NULL,
    city TEXT NOT NULL,
    pm25_avg REAL,
    pm25_max REAL,
    pm25_min REAL,
    sample_count INTEGER DEFAULT 0,
    PRIMARY KEY (date, city)
);

CREATE INDEX IF NOT EXISTS idx_readings_sensor_time ON readings(sensor_id, observed_at);
CREATE INDEX IF NOT EXISTS idx_readings_time ON readings(observed_at);
CREATE INDEX IF NOT EXISTS idx_hotspots_acquired ON hotspots(acquired_at);
`,
	},
	{
		Version:     2,
		Description: "Add ingest audit tables",
		SQL: `
CREATE TABLE IF NOT EXISTS ingest_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    source TEXT NOT NULL,
    endpoint TEXT NOT NULL,
    sensor_id TEXT,
    http_status INTEGER,
    response_size_bytes INTEGER,
    records_parsed INTEGER,
    records_stored INTEGER,
    parse_errors INTEGER,
    success BOOLEAN NOT NULL DEFAULT FALSE,
    error_message TEXT
);

CREATE TABLE IF NOT EXISTS raw_payloads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ingest_run_id INTEGER REFERENCES ingest_runs(id),
    fetched_at DATETIME NOT NULL,
    source TEXT NOT NULL,
    endpoint TEXT NOT NULL,
    sensor_id TEXT,
    payload_compressed BLOB NOT NULL,
    payload_hash TEXT UNIQUE,
    schema_version INTEGER DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_started ON ingest_runs(started_at);
`,
	},
	{
		Version:     3,
		Description: "Add hotspot confidence index for impact queries",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_hotspots_confidence ON hotspots(confidence);
`,
	},
}

func (s *Store) Migrate() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		log.Printf("migrations: applying %d - %s", m.Version, m.Description)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}

		log.Printf("migrations: completed %d", m.Version)
	}

	return nil
}

func (s *Store) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`)
	return err
}

func (s *Store) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (s *Store) MigrationVersion() (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
