package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/fireaq/fireaq/internal/firms"
	"github.com/fireaq/fireaq/internal/httputil"
	"github.com/fireaq/fireaq/internal/metrics"
	"github.com/fireaq/fireaq/internal/models"
	"github.com/fireaq/fireaq/internal/openaq"
	"github.com/fireaq/fireaq/internal/store"
	"github.com/fireaq/fireaq/internal/waqi"
)

type Scheduler struct {
	store           *store.Store
	firms           *firms.Client
	waqi            *waqi.Client
	openaq          *openaq.Client
	city            string
	bbox            firms.BBox
	fireWindowHours int
	daily           *DailyJobs
	hotspotInterval time.Duration
	waqiInterval    time.Duration
	openaqInterval  time.Duration
}

func NewScheduler(st *store.Store, fc *firms.Client, wc *waqi.Client, oc *openaq.Client, city string, bbox firms.BBox, fireWindowHours int) *Scheduler {
	return &Scheduler{
		store:           st,
		firms:           fc,
		waqi:            wc,
		openaq:          oc,
		city:            city,
		bbox:            bbox,
		fireWindowHours: fireWindowHours,
		daily:           NewDailyJobs(st, city),
		hotspotInterval: 30 * time.Minute,
		waqiInterval:    10 * time.Minute,
		openaqInterval:  1 * time.Hour,
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	s.ingestHotspots(ctx)
	s.ingestWAQI(ctx)
	s.ingestOpenAQ(ctx)
	s.runDailyJobsIfNeeded()

	hotspotTicker := time.NewTicker(s.hotspotInterval)
	waqiTicker := time.NewTicker(s.waqiInterval)
	openaqTicker := time.NewTicker(s.openaqInterval)
	dailyTicker := time.NewTicker(1 * time.Hour)
	defer hotspotTicker.Stop()
	defer waqiTicker.Stop()
	defer openaqTicker.Stop()
	defer dailyTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: shutting down")
			return
		case <-hotspotTicker.C:
			s.ingestHotspots(ctx)
		case <-waqiTicker.C:
			s.ingestWAQI(ctx)
		case <-openaqTicker.C:
			s.ingestOpenAQ(ctx)
		case <-dailyTicker.C:
			s.runDailyJobsIfNeeded()
		}
	}
}

// runDailyJobsIfNeeded rolls up yesterday's readings once the UTC morning
// window opens. The hourly ticker means this fires at most once per hour;
// the roll-up itself is an idempotent upsert.
func (s *Scheduler) runDailyJobsIfNeeded() {
	now := time.Now().UTC()
	if now.Hour() >= 1 && now.Hour() < 2 {
		yesterday := now.AddDate(0, 0, -1)
		if err := s.daily.RunAll(yesterday); err != nil {
			log.Printf("scheduler: daily jobs: %v", err)
		}
	}
}

func (s *Scheduler) ingestHotspots(ctx context.Context) {
	log.Println("scheduler: ingesting fire detections")
	run, _ := s.store.StartIngestRun("firms", "area/csv", nil)

	start := time.Now()
	hotspots, raw, fetchResult, err := s.firms.FetchArea(ctx, s.bbox, s.fireWindowHours)
	metrics.APILatency.WithLabelValues("firms", "area/csv").Observe(time.Since(start).Seconds())

	recordFetchResult(run, fetchResult, err)
	observeAPICall("firms", "area/csv", fetchResult, err)

	for product, body := range raw {
		if len(body) == 0 || run == nil {
			continue
		}
		if _, err := s.store.StoreRawPayload(&run.ID, "firms", product, nil, []byte(body)); err != nil {
			log.Printf("scheduler: store FIRMS raw payload %s: %v", product, err)
		}
	}

	// The area API is occasionally unavailable; the worldwide 7-day feed is a
	// coarser substitute that still covers the tracked bounding box.
	if err != nil {
		log.Printf("scheduler: fetch FIRMS area: %v, trying global feed", err)
		var rawGlobal string
		hotspots, rawGlobal, fetchResult, err = s.firms.FetchGlobal7Day(ctx)
		recordFetchResult(run, fetchResult, err)
		observeAPICall("firms", "global/7d", fetchResult, err)
		if err != nil {
			log.Printf("scheduler: fetch FIRMS global: %v", err)
			s.store.CompleteIngestRun(run)
			return
		}
		if len(rawGlobal) > 0 && run != nil {
			if _, err := s.store.StoreRawPayload(&run.ID, "firms", "global/7d", nil, []byte(rawGlobal)); err != nil {
				log.Printf("scheduler: store FIRMS raw payload global/7d: %v", err)
			}
		}

		inBox := hotspots[:0]
		for _, h := range hotspots {
			if s.bbox.Contains(h.Latitude, h.Longitude) {
				inBox = append(inBox, h)
			}
		}
		hotspots = inBox
	}

	inserted := 0
	byProduct := make(map[string]int)
	for _, h := range hotspots {
		isNew, err := s.store.InsertHotspot(h, h.Instrument)
		if err != nil {
			log.Printf("scheduler: insert hotspot: %v", err)
			continue
		}
		if isNew {
			inserted++
			byProduct[h.Instrument]++
		}
	}
	for product, n := range byProduct {
		metrics.HotspotsIngested.WithLabelValues(product).Add(float64(n))
	}
	log.Printf("scheduler: inserted %d fire detections (%d fetched)", inserted, len(hotspots))

	if run != nil {
		run.RecordsStored = sql.NullInt64{Int64: int64(inserted), Valid: true}
		s.store.CompleteIngestRun(run)
	}
}

func (s *Scheduler) ingestWAQI(ctx context.Context) {
	sensorID := waqiSensorID(s.city)
	run, _ := s.store.StartIngestRun("waqi", "feed", &sensorID)

	start := time.Now()
	reading, raw, fetchResult, err := s.waqi.FetchCity(ctx, s.city)
	metrics.APILatency.WithLabelValues("waqi", "feed").Observe(time.Since(start).Seconds())

	recordFetchResult(run, fetchResult, err)
	observeAPICall("waqi", "feed", fetchResult, err)

	if len(raw) > 0 && run != nil {
		if _, err := s.store.StoreRawPayload(&run.ID, "waqi", "feed", &sensorID, []byte(raw)); err != nil {
			log.Printf("scheduler: store WAQI raw payload: %v", err)
		}
	}

	if err != nil {
		log.Printf("scheduler: fetch WAQI feed: %v", err)
		s.store.CompleteIngestRun(run)
		return
	}

	sensor := models.Sensor{
		SensorID: sensorID,
		Source:   "waqi",
		Name:     reading.Station,
		City:     s.city,
		Active:   true,
	}
	if reading.Location != nil {
		sensor.Latitude = sql.NullFloat64{Float64: reading.Location.Latitude, Valid: true}
		sensor.Longitude = sql.NullFloat64{Float64: reading.Location.Longitude, Valid: true}
	}
	if err := s.store.UpsertSensor(sensor); err != nil {
		log.Printf("scheduler: upsert WAQI sensor: %v", err)
	}

	r := models.Reading{
		SensorID:   sensorID,
		ObservedAt: reading.ObservedAt,
		RawJSON:    raw,
	}
	if reading.PM25 != nil {
		r.PM25 = sql.NullFloat64{Float64: *reading.PM25, Valid: true}
	}
	if err := s.store.InsertReading(r); err != nil {
		log.Printf("scheduler: insert WAQI reading: %v", err)
		if run != nil {
			run.Success = false
			run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
			s.store.CompleteIngestRun(run)
		}
		return
	}
	metrics.ReadingsIngested.WithLabelValues("waqi").Inc()

	if reading.PM25 != nil {
		log.Printf("scheduler: %s: PM2.5 %.1f µg/m³", reading.Station, *reading.PM25)
	}

	if run != nil {
		run.RecordsStored = sql.NullInt64{Int64: 1, Valid: true}
		s.store.CompleteIngestRun(run)
	}
}

func (s *Scheduler) ingestOpenAQ(ctx context.Context) {
	if s.openaq == nil {
		return
	}
	log.Println("scheduler: ingesting OpenAQ sensors")
	run, _ := s.store.StartIngestRun("openaq", "v3/locations", nil)

	start := time.Now()
	series, fetchResult, err := s.openaq.FetchPM25Series(ctx, s.bbox, 0)
	metrics.APILatency.WithLabelValues("openaq", "v3/locations").Observe(time.Since(start).Seconds())

	recordFetchResult(run, fetchResult, err)
	observeAPICall("openaq", "v3/locations", fetchResult, err)

	if err != nil {
		log.Printf("scheduler: fetch OpenAQ: %v", err)
		s.store.CompleteIngestRun(run)
		return
	}

	stored := 0
	for _, sr := range series {
		sensor := models.Sensor{
			SensorID: openaqSensorID(sr.SensorID),
			Source:   "openaq",
			Name:     sr.LocationName,
			City:     s.city,
			Active:   true,
		}
		if sr.Location != nil {
			sensor.Latitude = sql.NullFloat64{Float64: sr.Location.Latitude, Valid: true}
			sensor.Longitude = sql.NullFloat64{Float64: sr.Location.Longitude, Valid: true}
		}
		if err := s.store.UpsertSensor(sensor); err != nil {
			log.Printf("scheduler: upsert OpenAQ sensor %d: %v", sr.SensorID, err)
			continue
		}

		for i, v := range sr.Hourly {
			if v == nil || i >= len(sr.HourlyAt) {
				continue
			}
			raw, _ := json.Marshal(map[string]float64{"value": *v})
			r := models.Reading{
				SensorID:   openaqSensorID(sr.SensorID),
				ObservedAt: sr.HourlyAt[i],
				PM25:       sql.NullFloat64{Float64: *v, Valid: true},
				RawJSON:    string(raw),
			}
			if err := s.store.InsertReading(r); err != nil {
				log.Printf("scheduler: insert OpenAQ reading: %v", err)
				continue
			}
			stored++
		}
	}
	metrics.ReadingsIngested.WithLabelValues("openaq").Add(float64(stored))
	log.Printf("scheduler: stored %d OpenAQ hourly readings across %d sensors", stored, len(series))

	if run != nil {
		run.RecordsStored = sql.NullInt64{Int64: int64(stored), Valid: true}
		s.store.CompleteIngestRun(run)
	}
}

// IngestOnce runs every ingest job a single time, for --once mode.
func (s *Scheduler) IngestOnce(ctx context.Context) error {
	s.ingestHotspots(ctx)
	s.ingestWAQI(ctx)
	s.ingestOpenAQ(ctx)
	return nil
}

func (s *Scheduler) RunDailyJobs() error {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	return s.daily.RunAll(yesterday)
}

func (s *Scheduler) BackfillDailySummaries() error {
	return s.daily.BackfillSummaries()
}

func recordFetchResult(run *store.IngestRun, fetchResult *httputil.FetchResult, err error) {
	if run == nil {
		return
	}
	run.Success = err == nil
	if fetchResult != nil {
		run.HTTPStatus = sql.NullInt64{Int64: int64(fetchResult.HTTPStatus), Valid: fetchResult.HTTPStatus > 0}
		run.ResponseSizeBytes = sql.NullInt64{Int64: int64(fetchResult.ResponseSize), Valid: fetchResult.ResponseSize > 0}
		run.RecordsParsed = sql.NullInt64{Int64: int64(fetchResult.RecordCount), Valid: true}
		if fetchResult.ParseErrors > 0 {
			run.ParseErrors = sql.NullInt64{Int64: int64(fetchResult.ParseErrors), Valid: true}
			run.ErrorMessage = sql.NullString{String: fetchResult.ParseError, Valid: true}
			log.Printf("scheduler: %s parse errors: %s", run.Source, fetchResult.ParseError)
		}
	}
	if err != nil {
		run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	}
}

func observeAPICall(source, endpoint string, fetchResult *httputil.FetchResult, err error) {
	status := "ok"
	if fetchResult != nil && fetchResult.HTTPStatus > 0 {
		status = strconv.Itoa(fetchResult.HTTPStatus)
	} else if err != nil {
		status = "error"
	}
	metrics.APICallsTotal.WithLabelValues(source, endpoint, status).Inc()
}

func waqiSensorID(city string) string {
	return "waqi:" + city
}

func openaqSensorID(sensorID int) string {
	return "openaq:" + strconv.Itoa(sensorID)
}
