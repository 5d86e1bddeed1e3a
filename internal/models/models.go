package models

import (
	"database/sql"
	"time"
)

type Sensor struct {
	SensorID  string // "waqi:losangeles", "openaq:3917"
	Source    string // "waqi" or "openaq"
	Name      string
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
	City      string
	Active    bool
}

type Reading struct {
	ID         int64
	SensorID   string
	ObservedAt time.Time
	PM25       sql.NullFloat64
	RawJSON    string
	CreatedAt  time.Time
}

type HotspotRow struct {
	ID         int64
	Latitude   float64
	Longitude  float64
	Confidence int
	FRP        sql.NullFloat64
	AcquiredAt time.Time
	Satellite  string
	Instrument string
	DayNight   string
	Product    string
	CreatedAt  time.Time
}

type DailyAirSummary struct {
	Date        time.Time
	City        string
	PM25Avg     sql.NullFloat64
	PM25Max     sql.NullFloat64
	PM25Min     sql.NullFloat64
	SampleCount int
}
