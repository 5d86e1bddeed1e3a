package forecast

import (
	"math"
	"testing"
	"time"
)

func day(offset int, pm25 float64) DailyAverage {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return DailyAverage{Date: base.AddDate(0, 0, offset), PM25: pm25, Samples: 24}
}

func TestProjectFlatHistory(t *testing.T) {
	history := []DailyAverage{day(0, 30), day(1, 30), day(2, 30)}
	got := Project(history, ForecastDays)
	if len(got) != ForecastDays {
		t.Fatalf("forecast length = %d, want %d", len(got), ForecastDays)
	}
	for i, v := range got {
		if math.Abs(v-30) > 1e-9 {
			t.Errorf("day %d = %v, want 30 (flat history has no drift)", i, v)
		}
	}
}

func TestProjectRisingHistory(t *testing.T) {
	history := []DailyAverage{day(0, 10), day(1, 20), day(2, 30)}
	got := Project(history, 3)
	if len(got) != 3 {
		t.Fatalf("forecast length = %d", len(got))
	}
	// baseline 20, drift +10/day.
	want := []float64{30, 40, 50}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("day %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestProjectFallingFloorsAtZero(t *testing.T) {
	history := []DailyAverage{day(0, 20), day(1, 10), day(2, 0)}
	got := Project(history, 5)
	for i, v := range got {
		if v < 0 {
			t.Errorf("day %d = %v, forecast must not go negative", i, v)
		}
	}
}

func TestProjectUsesRecentWindowOnly(t *testing.T) {
	// Ancient spike outside the 7-day window must not affect the projection.
	history := []DailyAverage{day(0, 500)}
	for i := 1; i <= 7; i++ {
		history = append(history, day(i, 25))
	}
	got := Project(history, 1)
	if math.Abs(got[0]-25) > 1e-9 {
		t.Errorf("forecast = %v, want 25", got[0])
	}
}

func TestProjectInsufficientHistory(t *testing.T) {
	if got := Project([]DailyAverage{day(0, 30)}, 7); got != nil {
		t.Errorf("Project with 1 day = %v, want nil", got)
	}
	if got := Project(nil, 7); got != nil {
		t.Errorf("Project with no history = %v, want nil", got)
	}
}
