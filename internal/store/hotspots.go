package store

import (
	"database/sql"
	"time"

	"github.com/fireaq/fireaq/internal/firms"
	"github.com/fireaq/fireaq/internal/models"
)

// InsertHotspot stores a satellite fire detection. Detections are
// deduplicated on (latitude, longitude, acquired_at, satellite) so repeated
// fetches of overlapping windows are safe. Returns true when a new row was
// inserted.
func (s *Store) InsertHotspot(h firms.Hotspot, product string) (bool, error) {
	result, err := s.db.Exec(`
		INSERT INTO hotspots (latitude, longitude, confidence, frp, acquired_at, satellite, instrument, day_night, product)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(latitude, longitude, acquired_at, satellite) DO NOTHING
	`, h.Latitude, h.Longitude, h.Confidence, h.FRP, h.AcquiredAt, h.Satellite, h.Instrument, h.DayNight, product)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetRecentHotspots returns detections acquired at or after the cutoff,
// newest first.
func (s *Store) GetRecentHotspots(since time.Time) ([]firms.Hotspot, error) {
	rows, err := s.db.Query(`
		SELECT latitude, longitude, confidence, frp, acquired_at, satellite, instrument, day_night
		FROM hotspots
		WHERE acquired_at >= ?
		ORDER BY acquired_at DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hotspots []firms.Hotspot
	for rows.Next() {
		var h firms.Hotspot
		var frp sql.NullFloat64
		if err := rows.Scan(&h.Latitude, &h.Longitude, &h.Confidence, &frp, &h.AcquiredAt, &h.Satellite, &h.Instrument, &h.DayNight); err != nil {
			return nil, err
		}
		if frp.Valid {
			h.FRP = frp.Float64
		}
		hotspots = append(hotspots, h)
	}
	return hotspots, rows.Err()
}

// GetHotspotRows returns the stored detection rows for a window, for the
// history API.
func (s *Store) GetHotspotRows(since time.Time, limit int) ([]models.HotspotRow, error) {
	rows, err := s.db.Query(`
		SELECT id, latitude, longitude, confidence, frp, acquired_at, satellite, instrument, day_night, product, created_at
		FROM hotspots
		WHERE acquired_at >= ?
		ORDER BY acquired_at DESC
		LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.HotspotRow
	for rows.Next() {
		var r models.HotspotRow
		if err := rows.Scan(&r.ID, &r.Latitude, &r.Longitude, &r.Confidence, &r.FRP, &r.AcquiredAt,
			&r.Satellite, &r.Instrument, &r.DayNight, &r.Product, &r.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// CleanupOldHotspots deletes detections older than the retention window.
// Returns the number of deleted rows.
func (s *Store) CleanupOldHotspots(retentionDays int) (int64, error) {
	result, err := s.db.Exec(`
		DELETE FROM hotspots
		WHERE acquired_at < DATE('now', '-' || ? || ' days')
	`, retentionDays)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
