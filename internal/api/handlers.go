package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/fireaq/fireaq/internal/aqi"
	"github.com/fireaq/fireaq/internal/firms"
	"github.com/fireaq/fireaq/internal/forecast"
	"github.com/fireaq/fireaq/internal/imagegen"
	"github.com/fireaq/fireaq/internal/report"
)

// staleThreshold is how old a reading can be before it no longer represents
// current conditions.
const staleThreshold = 3 * time.Hour

type SensorStatus struct {
	SensorID   string     `json:"sensor_id"`
	Name       string     `json:"name"`
	Source     string     `json:"source"`
	PM25       *float64   `json:"pm25"`
	NowCast    *float64   `json:"nowcast"`
	AQI        aqi.Result `json:"aqi"`
	ObservedAt time.Time  `json:"observed_at"`
	Stale      bool       `json:"stale"`
}

type CurrentData struct {
	City        string         `json:"city"`
	PM25        *float64       `json:"pm25"`
	AQI         aqi.Result     `json:"aqi"`
	ObservedAt  time.Time      `json:"observed_at"`
	Sensors     []SensorStatus `json:"sensors"`
	LastUpdated time.Time      `json:"last_updated"`
}

// getCurrentData assembles the city's current air quality picture. The WAQI
// city feed is the headline value; OpenAQ sensors contribute NowCast scores
// smoothed over their last 12 hours.
func (s *Server) getCurrentData() (*CurrentData, error) {
	sensors, err := s.store.GetActiveSensors()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	data := &CurrentData{
		City:        s.city,
		LastUpdated: now,
	}

	for _, sn := range sensors {
		latest, err := s.store.GetLatestReading(sn.SensorID)
		if err != nil {
			log.Printf("api: latest reading %s: %v", sn.SensorID, err)
			continue
		}
		if latest == nil {
			continue
		}

		status := SensorStatus{
			SensorID:   sn.SensorID,
			Name:       sn.Name,
			Source:     sn.Source,
			ObservedAt: latest.ObservedAt,
			Stale:      now.Sub(latest.ObservedAt) > staleThreshold,
		}
		if latest.PM25.Valid {
			v := latest.PM25.Float64
			status.PM25 = &v
		}

		if sn.Source == "openaq" {
			hourly, err := s.store.GetHourlyPM25(sn.SensorID, now.Add(-13*time.Hour), 12)
			if err != nil {
				log.Printf("api: hourly pm25 %s: %v", sn.SensorID, err)
			} else {
				ptrs := make([]*float64, len(hourly))
				for i := range hourly {
					ptrs[i] = &hourly[i]
				}
				status.NowCast = aqi.NowCast(ptrs)
			}
		}

		scoreInput := status.PM25
		if status.NowCast != nil {
			scoreInput = status.NowCast
		}
		res, err := s.scale.Score(scoreInput)
		if err != nil {
			log.Printf("api: score %s: %v", sn.SensorID, err)
			res, _ = s.scale.Score(nil)
		}
		status.AQI = res

		data.Sensors = append(data.Sensors, status)

		// The WAQI city feed is authoritative for the headline when fresh.
		if sn.Source == "waqi" && !status.Stale && status.PM25 != nil {
			data.PM25 = status.PM25
			data.ObservedAt = latest.ObservedAt
		}
	}

	// Fall back to any fresh sensor when the city feed is missing or stale.
	if data.PM25 == nil {
		for _, st := range data.Sensors {
			if st.Stale {
				continue
			}
			if st.NowCast != nil {
				data.PM25 = st.NowCast
				data.ObservedAt = st.ObservedAt
				break
			}
			if st.PM25 != nil {
				data.PM25 = st.PM25
				data.ObservedAt = st.ObservedAt
				break
			}
		}
	}

	res, err := s.scale.Score(data.PM25)
	if err != nil {
		return nil, err
	}
	data.AQI = res

	return data, nil
}

type FireData struct {
	TotalDetections int                `json:"total_detections"`
	Significant     []firms.NearbyFire `json:"significant"`
	WindowHours     int                `json:"window_hours"`
}

func (s *Server) getFireData() (*FireData, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(s.fireWindowHours) * time.Hour)
	hotspots, err := s.store.GetRecentHotspots(cutoff)
	if err != nil {
		return nil, err
	}

	return &FireData{
		TotalDetections: len(hotspots),
		Significant:     firms.AssessImpact(s.center, hotspots),
		WindowHours:     s.fireWindowHours,
	}, nil
}

type ForecastData struct {
	History  []forecast.DailyAverage `json:"history"`
	Forecast []float64               `json:"forecast"`
	Trend    report.Trend            `json:"trend"`
}

func (s *Server) getForecastData() (*ForecastData, error) {
	history, err := s.store.GetRecentDailyAverages(s.city, 14)
	if err != nil {
		return nil, err
	}

	projected := forecast.Project(history, forecast.ForecastDays)
	return &ForecastData{
		History:  history,
		Forecast: projected,
		Trend:    report.ClassifyTrend(projected),
	}, nil
}

type SummaryData struct {
	Summary   report.Summary `json:"summary"`
	Text      string         `json:"text"`
	Narrative string         `json:"narrative,omitempty"`
}

func (s *Server) getSummaryData(r *http.Request) (*SummaryData, error) {
	current, err := s.getCurrentData()
	if err != nil {
		return nil, err
	}
	fires, err := s.getFireData()
	if err != nil {
		return nil, err
	}
	fc, err := s.getForecastData()
	if err != nil {
		return nil, err
	}

	summary := report.BuildSummary(current.AQI, fires.Significant, fc.Trend)
	data := &SummaryData{
		Summary: summary,
		Text:    summary.Text(),
	}

	if s.narrator != nil {
		narrative, err := s.narrator.Narrate(r.Context(), summary, s.city)
		if err != nil {
			log.Printf("api: narrate: %v", err)
		} else {
			data.Narrative = narrative
		}
	}

	return data, nil
}

func (s *Server) handleAPICurrent(w http.ResponseWriter, r *http.Request) {
	data, err := s.getCurrentData()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, data)
}

func (s *Server) handleAPIFires(w http.ResponseWriter, r *http.Request) {
	data, err := s.getFireData()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, data)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	data, err := s.getSummaryData(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, data)
}

func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	data, err := s.getForecastData()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, data)
}

type HistoryReading struct {
	ObservedAt time.Time `json:"observed_at"`
	PM25       *float64  `json:"pm25"`
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	sensorID := r.URL.Query().Get("sensor")
	if sensorID == "" {
		sensorID = "waqi:" + s.city
	}

	end := time.Now().UTC()
	start := end.Add(-24 * time.Hour)

	readings, err := s.store.GetReadings(sensorID, start, end)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]HistoryReading, 0, len(readings))
	for _, rd := range readings {
		h := HistoryReading{ObservedAt: rd.ObservedAt}
		if rd.PM25.Valid {
			v := rd.PM25.Float64
			h.PM25 = &v
		}
		out = append(out, h)
	}
	writeJSON(w, out)
}

func (s *Server) handleAQICard(w http.ResponseWriter, r *http.Request) {
	current, err := s.getCurrentData()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	key := current.AQI.Category
	if data, ok := s.cardCache.Get(key); ok {
		serveCard(w, data)
		return
	}

	data, err := imagegen.Card(current.AQI, s.city, time.Now())
	if err != nil {
		log.Printf("api: render card: %v", err)
		http.Error(w, "card rendering failed", http.StatusInternalServerError)
		return
	}
	if err := s.cardCache.Set(key, data); err != nil {
		log.Printf("api: cache card: %v", err)
	}
	serveCard(w, data)
}

func serveCard(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=600")
	w.Write(data)
}

type HealthStatus struct {
	Status  string         `json:"status"`
	Sensors []SensorHealth `json:"sensors"`
	Errors  []string       `json:"errors,omitempty"`
}

type SensorHealth struct {
	SensorID   string    `json:"sensor_id"`
	LastSeen   time.Time `json:"last_seen"`
	AgeMinutes int       `json:"age_minutes"`
	Stale      bool      `json:"stale"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sensors, err := s.store.GetActiveSensors()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
		return
	}

	health := HealthStatus{
		Status:  "ok",
		Sensors: make([]SensorHealth, 0, len(sensors)),
	}

	now := time.Now().UTC()
	for _, sn := range sensors {
		latest, err := s.store.GetLatestReading(sn.SensorID)
		if err != nil {
			health.Errors = append(health.Errors, sn.SensorID+": "+err.Error())
			continue
		}

		sh := SensorHealth{SensorID: sn.SensorID}
		if latest != nil {
			sh.LastSeen = latest.ObservedAt
			sh.AgeMinutes = int(now.Sub(latest.ObservedAt).Minutes())
			sh.Stale = now.Sub(latest.ObservedAt) > staleThreshold
		} else {
			sh.Stale = true
			sh.AgeMinutes = -1
		}

		if sh.Stale {
			health.Status = "degraded"
		}
		health.Sensors = append(health.Sensors, sh)
	}

	if len(health.Errors) > 0 {
		health.Status = "error"
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		log.Printf("health: write response: %v", err)
	}
}

type IndexData struct {
	Current  *CurrentData
	Fires    *FireData
	Summary  report.Summary
	Forecast *ForecastData
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	current, err := s.getCurrentData()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fires, err := s.getFireData()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fc, err := s.getForecastData()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := IndexData{
		Current:  current,
		Fires:    fires,
		Summary:  report.BuildSummary(current.AQI, fires.Significant, fc.Trend),
		Forecast: fc,
	}
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("template error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
