package store

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// RawPayload represents a stored API response payload.
type RawPayload struct {
	ID                int64
	IngestRunID       sql.NullInt64
	FetchedAt         time.Time
	Source            string
	Endpoint          string
	SensorID          sql.NullString
	PayloadCompressed []byte
	PayloadHash       string
	SchemaVersion     int
}

// StoreRawPayload stores a compressed API response payload.
// Duplicate payloads (same hash) are silently skipped.
func (s *Store) StoreRawPayload(runID *int64, source, endpoint string, sensorID *string, payload []byte) (int64, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return 0, fmt.Errorf("compress payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("close gzip: %w", err)
	}
	compressed := buf.Bytes()

	hash := sha256.Sum256(payload)
	hashHex := hex.EncodeToString(hash[:])

	var ingestRunID sql.NullInt64
	if runID != nil {
		ingestRunID = sql.NullInt64{Int64: *runID, Valid: true}
	}

	var sensorIDNull sql.NullString
	if sensorID != nil {
		sensorIDNull = sql.NullString{String: *sensorID, Valid: true}
	}

	result, err := s.db.Exec(`
		INSERT INTO raw_payloads
		(ingest_run_id, fetched_at, source, endpoint, sensor_id, payload_compressed, payload_hash, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(payload_hash) DO NOTHING
	`, ingestRunID, time.Now().UTC(), source, endpoint, sensorIDNull, compressed, hashHex)
	if err != nil {
		return 0, fmt.Errorf("insert raw payload: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	return id, nil
}

// GetRawPayload retrieves and decompresses a stored payload by ID.
func (s *Store) GetRawPayload(id int64) ([]byte, error) {
	var compressed []byte
	err := s.db.QueryRow(`SELECT payload_compressed FROM raw_payloads WHERE id = ?`, id).
		Scan(&compressed)
	if err != nil {
		return nil, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

// CleanupOldRawPayloads deletes raw payloads older than the specified number
// of days. Returns the number of deleted records.
func (s *Store) CleanupOldRawPayloads(retentionDays int) (int64, error) {
	result, err := s.db.Exec(`
		DELETE FROM raw_payloads
		WHERE fetched_at < DATE('now', '-' || ? || ' days')
	`, retentionDays)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
