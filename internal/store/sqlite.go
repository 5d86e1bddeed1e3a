package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fireaq/fireaq/internal/forecast"
	"github.com/fireaq/fireaq/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UpsertSensor(sn models.Sensor) error {
	_, err := s.db.Exec(`
		INSERT INTO sensors (sensor_id, source, name, latitude, longitude, city, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sensor_id) DO UPDATE SET
			source = excluded.source,
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			city = excluded.city,
			active = excluded.active
	`, sn.SensorID, sn.Source, sn.Name, sn.Latitude, sn.Longitude, sn.City, sn.Active)
	return err
}

func (s *Store) GetActiveSensors() ([]models.Sensor, error) {
	rows, err := s.db.Query(`SELECT sensor_id, source, name, latitude, longitude, city, active FROM sensors WHERE active = TRUE ORDER BY sensor_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sensors []models.Sensor
	for rows.Next() {
		var sn models.Sensor
		if err := rows.Scan(&sn.SensorID, &sn.Source, &sn.Name, &sn.Latitude, &sn.Longitude, &sn.City, &sn.Active); err != nil {
			return nil, err
		}
		sensors = append(sensors, sn)
	}
	return sensors, rows.Err()
}

func (s *Store) InsertReading(r models.Reading) error {
	_, err := s.db.Exec(`
		INSERT INTO readings (sensor_id, observed_at, pm25, raw_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(sensor_id, observed_at) DO NOTHING
	`, r.SensorID, r.ObservedAt, r.PM25, r.RawJSON)
	return err
}

func (s *Store) GetLatestReading(sensorID string) (*models.Reading, error) {
	row := s.db.QueryRow(`
		SELECT id, sensor_id, observed_at, pm25, raw_json, created_at
		FROM readings
		WHERE sensor_id = ?
		ORDER BY observed_at DESC
		LIMIT 1
	`, sensorID)

	var r models.Reading
	err := row.Scan(&r.ID, &r.SensorID, &r.ObservedAt, &r.PM25, &r.RawJSON, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetReadings(sensorID string, start, end time.Time) ([]models.Reading, error) {
	rows, err := s.db.Query(`
		SELECT id, sensor_id, observed_at, pm25, raw_json, created_at
		FROM readings
		WHERE sensor_id = ? AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC
	`, sensorID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		var r models.Reading
		if err := rows.Scan(&r.ID, &r.SensorID, &r.ObservedAt, &r.PM25, &r.RawJSON, &r.CreatedAt); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// GetHourlyPM25 returns one averaged PM2.5 value per hour for a sensor,
// oldest first, over the given window. Hours with no PM2.5 data are skipped.
func (s *Store) GetHourlyPM25(sensorID string, since time.Time, limit int) ([]float64, error) {
	rows, err := s.db.Query(`
		SELECT AVG(pm25)
		FROM readings
		WHERE sensor_id = ? AND observed_at >= ? AND pm25 IS NOT NULL
		GROUP BY STRFTIME('%Y-%m-%dT%H', observed_at)
		ORDER BY STRFTIME('%Y-%m-%dT%H', observed_at) DESC
		LIMIT ?
	`, sensorID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returns newest first; callers want oldest first.
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}
	return values, nil
}

// ComputeDailyAirSummary aggregates all PM2.5 readings for a city on a UTC
// calendar day. It returns a summary with SampleCount zero when no readings
// exist for the day.
func (s *Store) ComputeDailyAirSummary(city string, date time.Time) (*models.DailyAirSummary, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	summary := &models.DailyAirSummary{Date: dayStart, City: city}

	err := s.db.QueryRow(`
		SELECT AVG(r.pm25), MAX(r.pm25), MIN(r.pm25), COUNT(r.pm25)
		FROM readings r
		JOIN sensors sn ON r.sensor_id = sn.sensor_id
		WHERE sn.city = ? AND sn.active = TRUE
		  AND r.pm25 IS NOT NULL
		  AND r.observed_at >= ? AND r.observed_at < ?
	`, city, dayStart, dayEnd).Scan(&summary.PM25Avg, &summary.PM25Max, &summary.PM25Min, &summary.SampleCount)
	if err != nil {
		return nil, fmt.Errorf("aggregate daily readings: %w", err)
	}

	return summary, nil
}

func (s *Store) UpsertDailyAirSummary(ds models.DailyAirSummary) error {
	_, err := s.db.Exec(`
		INSERT INTO daily_air_summaries (date, city, pm25_avg, pm25_max, pm25_min, sample_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, city) DO UPDATE SET
			pm25_avg = excluded.pm25_avg,
			pm25_max = excluded.pm25_max,
			pm25_min = excluded.pm25_min,
			sample_count = excluded.sample_count
	`, ds.Date, ds.City, ds.PM25Avg, ds.PM25Max, ds.PM25Min, ds.SampleCount)
	return err
}

func (s *Store) GetDailyAirSummaries(city string, start, end time.Time) ([]models.DailyAirSummary, error) {
	rows, err := s.db.Query(`
		SELECT date, city, pm25_avg, pm25_max, pm25_min, sample_count
		FROM daily_air_summaries
		WHERE city = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, city, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.DailyAirSummary
	for rows.Next() {
		var ds models.DailyAirSummary
		if err := rows.Scan(&ds.Date, &ds.City, &ds.PM25Avg, &ds.PM25Max, &ds.PM25Min, &ds.SampleCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

// GetRecentDailyAverages returns the last N days of city-wide daily PM2.5
// averages as forecast input, oldest first. Days without an average are
// excluded.
func (s *Store) GetRecentDailyAverages(city string, days int) ([]forecast.DailyAverage, error) {
	rows, err := s.db.Query(`
		SELECT date, pm25_avg, sample_count
		FROM daily_air_summaries
		WHERE city = ? AND pm25_avg IS NOT NULL
		ORDER BY date DESC
		LIMIT ?
	`, city, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var averages []forecast.DailyAverage
	for rows.Next() {
		var d forecast.DailyAverage
		if err := rows.Scan(&d.Date, &d.PM25, &d.Samples); err != nil {
			return nil, err
		}
		averages = append(averages, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(averages)-1; i < j; i, j = i+1, j-1 {
		averages[i], averages[j] = averages[j], averages[i]
	}
	return averages, nil
}

// GetObservationDates returns each distinct UTC day that has at least one
// reading, for daily summary backfills.
func (s *Store) GetObservationDates() ([]time.Time, error) {
	rows, err := s.db.Query(`SELECT DISTINCT SUBSTR(observed_at, 1, 10) as date FROM readings ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var dateStr string
		if err := rows.Scan(&dateStr); err != nil {
			return nil, err
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse reading date %q: %w", dateStr, err)
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}
