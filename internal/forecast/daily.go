package forecast

import "time"

// DailyAverage is one day of averaged PM2.5 readings for the tracked city.
type DailyAverage struct {
	Date    time.Time `json:"date"`
	PM25    float64   `json:"pm25"`
	Samples int       `json:"samples"`
}

const (
	// ForecastDays matches the dashboard's 7-day outlook.
	ForecastDays = 7

	// driftWindow bounds how much history feeds the projection.
	driftWindow = 7
)

// Project produces a daily-average PM2.5 forecast from recent history using
// persistence with drift: the mean of the last week's averages, extrapolated
// by the mean day-over-day change. It is deliberately simple — the trend
// classifier downstream only needs the direction and rough magnitude — and
// deterministic given the same history.
//
// History must be ordered oldest-first. Fewer than 2 days of history cannot
// support a projection and yields nil.
func Project(history []DailyAverage, days int) []float64 {
	if len(history) < 2 || days <= 0 {
		return nil
	}

	window := history
	if len(window) > driftWindow {
		window = window[len(window)-driftWindow:]
	}

	var sum float64
	for _, d := range window {
		sum += d.PM25
	}
	baseline := sum / float64(len(window))

	var driftSum float64
	for i := 1; i < len(window); i++ {
		driftSum += window[i].PM25 - window[i-1].PM25
	}
	drift := driftSum / float64(len(window)-1)

	forecast := make([]float64, days)
	for i := range forecast {
		v := baseline + drift*float64(i+1)
		if v < 0 {
			v = 0
		}
		forecast[i] = v
	}
	return forecast
}
