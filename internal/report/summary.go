package report

import (
	"fmt"
	"strings"

	"github.com/fireaq/fireaq/internal/aqi"
	"github.com/fireaq/fireaq/internal/firms"
)

// Trend classifies where the forecast daily averages are heading.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendWorsening Trend = "worsening"
	TrendStable    Trend = "stable"
	TrendUnknown   Trend = "unknown"
)

const (
	worseningFactor = 1.1
	improvingFactor = 0.9
)

// ClassifyTrend compares the last forecast-day average against the first:
// more than 10% above is worsening, more than 10% below is improving,
// anything between is stable. Fewer than two points cannot be classified.
func ClassifyTrend(forecast []float64) Trend {
	if len(forecast) < 2 {
		return TrendUnknown
	}
	first := forecast[0]
	last := forecast[len(forecast)-1]
	switch {
	case last > first*worseningFactor:
		return TrendWorsening
	case last < first*improvingFactor:
		return TrendImproving
	default:
		return TrendStable
	}
}

// Summary is the three-line environmental report shown on the dashboard.
type Summary struct {
	AirQuality string `json:"air_quality"`
	Wildfire   string `json:"wildfire"`
	Forecast   string `json:"forecast"`
}

// Text joins the three lines for plain-text consumers.
func (s Summary) Text() string {
	return strings.Join([]string{s.AirQuality, s.Wildfire, s.Forecast}, "\n")
}

// BuildSummary composes the report from the scored AQI, the fire impact
// assessment and the forecast trend. Unknown inputs produce honest "no data"
// lines rather than being dropped.
func BuildSummary(res aqi.Result, impact []firms.NearbyFire, trend Trend) Summary {
	var s Summary

	if res.Index.Valid {
		s.AirQuality = fmt.Sprintf("Air quality: AQI %d (%s).", res.Index.Value, res.Category)
	} else {
		s.AirQuality = "Air quality: no recent PM2.5 data available."
	}

	if len(impact) > 0 {
		nearest := impact[0]
		s.Wildfire = fmt.Sprintf("Wildfire threat: %d significant fire detections nearby, nearest %.0f km away.",
			len(impact), nearest.DistanceKM)
	} else {
		s.Wildfire = "Wildfire threat: no nearby significant fire activity."
	}

	switch trend {
	case TrendWorsening:
		s.Forecast = "Forecast: air quality is expected to worsen over the coming days."
	case TrendImproving:
		s.Forecast = "Forecast: air quality is expected to improve over the coming days."
	case TrendStable:
		s.Forecast = "Forecast: air quality is expected to remain stable."
	default:
		s.Forecast = "Forecast: not enough data to project a trend."
	}

	return s
}
