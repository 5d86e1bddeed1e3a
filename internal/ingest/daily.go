package ingest

import (
	"fmt"
	"log"
	"time"

	"github.com/fireaq/fireaq/internal/store"
)

const (
	rawPayloadRetentionDays = 30
	hotspotRetentionDays    = 90
)

// DailyJobs rolls readings up into daily city summaries and prunes old data.
type DailyJobs struct {
	store *store.Store
	city  string
}

func NewDailyJobs(st *store.Store, city string) *DailyJobs {
	return &DailyJobs{store: st, city: city}
}

// RunAll computes the daily air summary for the given date and runs
// retention cleanup. Safe to re-run for the same date.
func (d *DailyJobs) RunAll(date time.Time) error {
	if err := d.RollUpDay(date); err != nil {
		return err
	}

	if deleted, err := d.store.CleanupOldRawPayloads(rawPayloadRetentionDays); err != nil {
		log.Printf("daily: cleanup raw payloads: %v", err)
	} else if deleted > 0 {
		log.Printf("daily: deleted %d raw payloads older than %d days", deleted, rawPayloadRetentionDays)
	}

	if deleted, err := d.store.CleanupOldHotspots(hotspotRetentionDays); err != nil {
		log.Printf("daily: cleanup hotspots: %v", err)
	} else if deleted > 0 {
		log.Printf("daily: deleted %d fire detections older than %d days", deleted, hotspotRetentionDays)
	}

	return nil
}

// RollUpDay aggregates one UTC day of readings into a daily summary row.
func (d *DailyJobs) RollUpDay(date time.Time) error {
	summary, err := d.store.ComputeDailyAirSummary(d.city, date)
	if err != nil {
		return fmt.Errorf("compute daily summary for %s: %w", date.Format("2006-01-02"), err)
	}
	if summary.SampleCount == 0 {
		log.Printf("daily: no readings for %s, skipping summary", date.Format("2006-01-02"))
		return nil
	}
	if err := d.store.UpsertDailyAirSummary(*summary); err != nil {
		return fmt.Errorf("upsert daily summary for %s: %w", date.Format("2006-01-02"), err)
	}
	log.Printf("daily: summary %s: avg %.1f µg/m³ over %d samples",
		date.Format("2006-01-02"), summary.PM25Avg.Float64, summary.SampleCount)
	return nil
}

// BackfillSummaries recomputes a daily summary for every day that has
// readings.
func (d *DailyJobs) BackfillSummaries() error {
	dates, err := d.store.GetObservationDates()
	if err != nil {
		return fmt.Errorf("get observation dates: %w", err)
	}

	for _, date := range dates {
		if err := d.RollUpDay(date); err != nil {
			log.Printf("daily: backfill %s: %v", date.Format("2006-01-02"), err)
		}
	}
	log.Printf("daily: backfilled %d days", len(dates))
	return nil
}
