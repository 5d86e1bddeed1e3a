package api

import (
	"log"
	"net/http"
	"time"

	"github.com/fireaq/fireaq/internal/store"
)

type DailySummary struct {
	Date        string   `json:"date"`
	PM25Avg     *float64 `json:"pm25_avg"`
	PM25Max     *float64 `json:"pm25_max"`
	PM25Min     *float64 `json:"pm25_min"`
	SampleCount int      `json:"sample_count"`
}

// handleAPIDaily serves the daily roll-up table for the last 30 days.
func (s *Server) handleAPIDaily(w http.ResponseWriter, r *http.Request) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)

	summaries, err := s.store.GetDailyAirSummaries(s.city, start, end)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]DailySummary, 0, len(summaries))
	for _, ds := range summaries {
		d := DailySummary{
			Date:        ds.Date.Format("2006-01-02"),
			SampleCount: ds.SampleCount,
		}
		if ds.PM25Avg.Valid {
			v := ds.PM25Avg.Float64
			d.PM25Avg = &v
		}
		if ds.PM25Max.Valid {
			v := ds.PM25Max.Float64
			d.PM25Max = &v
		}
		if ds.PM25Min.Valid {
			v := ds.PM25Min.Float64
			d.PM25Min = &v
		}
		out = append(out, d)
	}
	writeJSON(w, out)
}

type Detection struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Confidence int       `json:"confidence"`
	FRP        *float64  `json:"frp"`
	AcquiredAt time.Time `json:"acquired_at"`
	Satellite  string    `json:"satellite"`
	Instrument string    `json:"instrument"`
	DayNight   string    `json:"day_night"`
}

// handleAPIDetections lists raw stored fire detections inside the lookback
// window, unfiltered by confidence.
func (s *Server) handleAPIDetections(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Now().UTC().Add(-time.Duration(s.fireWindowHours) * time.Hour)
	rows, err := s.store.GetHotspotRows(cutoff, 200)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]Detection, 0, len(rows))
	for _, h := range rows {
		d := Detection{
			Latitude:   h.Latitude,
			Longitude:  h.Longitude,
			Confidence: h.Confidence,
			AcquiredAt: h.AcquiredAt,
			Satellite:  h.Satellite,
			Instrument: h.Instrument,
			DayNight:   h.DayNight,
		}
		if h.FRP.Valid {
			v := h.FRP.Float64
			d.FRP = &v
		}
		out = append(out, d)
	}
	writeJSON(w, out)
}

type IngestError struct {
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source"`
	Endpoint  string    `json:"endpoint"`
	Error     string    `json:"error"`
}

type DataStatus struct {
	SchemaVersion int                         `json:"schema_version"`
	IngestHealth  []store.IngestHealthSummary `json:"ingest_health"`
	RecentErrors  []IngestError               `json:"recent_errors"`
}

// handleAPIData reports pipeline diagnostics: schema version, per-source
// ingest health for the last day, and the most recent failed runs.
func (s *Server) handleAPIData(w http.ResponseWriter, r *http.Request) {
	data := DataStatus{
		RecentErrors: []IngestError{},
	}

	if version, err := s.store.MigrationVersion(); err != nil {
		log.Printf("api: migration version: %v", err)
	} else {
		data.SchemaVersion = version
	}

	if health, err := s.store.GetIngestHealth(1); err != nil {
		log.Printf("api: ingest health: %v", err)
	} else {
		data.IngestHealth = health
	}

	if runs, err := s.store.GetRecentIngestErrors(5); err != nil {
		log.Printf("api: recent ingest errors: %v", err)
	} else {
		for _, run := range runs {
			e := IngestError{
				StartedAt: run.StartedAt,
				Source:    run.Source,
				Endpoint:  run.Endpoint,
			}
			if run.ErrorMessage.Valid {
				e.Error = run.ErrorMessage.String
			}
			data.RecentErrors = append(data.RecentErrors, e)
		}
	}

	writeJSON(w, data)
}
