package firms

import "time"

// Hotspot is a single satellite fire detection from the NASA FIRMS feed.
type Hotspot struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Confidence int       `json:"confidence"` // 0-100; categorical VIIRS values normalized at parse time
	FRP        float64   `json:"frp"`        // fire radiative power, MW
	AcquiredAt time.Time `json:"acquired_at"`
	Satellite  string    `json:"satellite"`
	Instrument string    `json:"instrument"`
	DayNight   string    `json:"day_night"`
}

// Coordinate is a reference point for proximity queries. A nil *Coordinate
// means the location could not be resolved; it is not the same as (0, 0).
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// BBox is a (west, south, east, north) bounding box in degrees, matching the
// FIRMS area API parameter order.
type BBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// Contains reports whether the coordinate falls inside the box.
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}

// LACounty covers all of Los Angeles County.
var LACounty = BBox{West: -118.951721, South: 33.704538, East: -117.646374, North: 34.823302}
