package aqi

import (
	"fmt"
	"math"
)

// Band maps a contiguous PM2.5 concentration range (µg/m³) onto an AQI range.
type Band struct {
	CLow  float64
	CHigh float64
	ILow  int
	IHigh int
}

// Scale is an ordered breakpoint table plus the cap applied above its top band.
// The two EPA tables are not numerically equivalent, so callers must pick one
// explicitly; there is no default.
type Scale struct {
	Name  string
	Bands []Band
	Cap   int
}

// EPA2024 is the revised 2024 EPA PM2.5 table (top "Good" band ends at 9.0).
var EPA2024 = Scale{
	Name: "epa2024",
	Bands: []Band{
		{0.0, 9.0, 0, 50},
		{9.1, 35.4, 51, 100},
		{35.5, 55.4, 101, 150},
		{55.5, 125.4, 151, 200},
		{125.5, 225.4, 201, 300},
		{225.5, 325.4, 301, 500},
	},
	Cap: 500,
}

// Legacy is the pre-2024 EPA PM2.5 table (top "Good" band ends at 12.0).
var Legacy = Scale{
	Name: "legacy",
	Bands: []Band{
		{0.0, 12.0, 0, 50},
		{12.1, 35.4, 51, 100},
		{35.5, 55.4, 101, 150},
		{55.5, 150.4, 151, 200},
		{150.5, 250.4, 201, 300},
		{250.5, 350.4, 301, 400},
		{350.5, 500.4, 401, 500},
	},
	Cap: 500,
}

// ScaleByName resolves a named preset. Used by CLI config so the table choice
// is explicit rather than inferred.
func ScaleByName(name string) (Scale, error) {
	switch name {
	case "epa2024":
		return EPA2024, nil
	case "legacy":
		return Legacy, nil
	}
	return Scale{}, fmt.Errorf("unknown AQI scale %q (want epa2024 or legacy)", name)
}

// Validate checks that the bands are ordered, non-overlapping and contiguous
// at 0.1 µg/m³ resolution. A scale that fails here is a configuration bug and
// must be rejected before any conversion uses it.
func (s Scale) Validate() error {
	if len(s.Bands) == 0 {
		return fmt.Errorf("scale %s: no bands", s.Name)
	}
	for i, b := range s.Bands {
		if b.CLow > b.CHigh {
			return fmt.Errorf("scale %s: band %d inverted (%.1f > %.1f)", s.Name, i, b.CLow, b.CHigh)
		}
		if b.ILow > b.IHigh {
			return fmt.Errorf("scale %s: band %d index range inverted (%d > %d)", s.Name, i, b.ILow, b.IHigh)
		}
		if i == 0 {
			continue
		}
		prev := s.Bands[i-1]
		gap := b.CLow - prev.CHigh
		if gap <= 0 {
			return fmt.Errorf("scale %s: bands %d and %d overlap", s.Name, i-1, i)
		}
		if gap > 0.1+1e-9 {
			return fmt.Errorf("scale %s: gap between bands %d and %d (%.2f to %.2f)", s.Name, i-1, i, prev.CHigh, b.CLow)
		}
		if b.ILow != prev.IHigh+1 {
			return fmt.Errorf("scale %s: index discontinuity between bands %d and %d", s.Name, i-1, i)
		}
	}
	return nil
}

// Convert maps a PM2.5 concentration to an AQI value by linear interpolation
// within its band. Concentrations are truncated to 0.1 µg/m³ first, per the
// EPA AQI equation, so every valid input lands in exactly one band of a
// validated scale. Above the top band the result clamps to the scale cap.
func (s Scale) Convert(c float64) (int, error) {
	if math.IsNaN(c) || c < 0 {
		return 0, fmt.Errorf("invalid concentration %v", c)
	}
	// The epsilon guards against 9.1*10 landing at 90.999... and truncating
	// a band boundary into the band below.
	c = math.Floor(c*10+1e-9) / 10

	for _, b := range s.Bands {
		if c >= b.CLow && c <= b.CHigh {
			v := float64(b.IHigh-b.ILow)/(b.CHigh-b.CLow)*(c-b.CLow) + float64(b.ILow)
			return int(math.Round(v)), nil
		}
	}

	top := s.Bands[len(s.Bands)-1]
	if c > top.CHigh {
		return s.Cap, nil
	}
	// Only reachable with a malformed (unvalidated) scale.
	return 0, fmt.Errorf("scale %s: no band for concentration %.1f", s.Name, c)
}

// Index is an AQI value that may be unknown. Unknown is a first-class state:
// it is what "no reading" becomes, and it is never conflated with zero.
type Index struct {
	Value int
	Valid bool
}

// Result bundles an AQI index with its category label and display color.
type Result struct {
	Index    Index  `json:"aqi"`
	Category string `json:"category"`
	Color    string `json:"color"`
}

// Score converts an optional concentration into a full AQI result. A nil
// concentration produces the unknown result rather than an error.
func (s Scale) Score(c *float64) (Result, error) {
	if c == nil {
		return Result{Index: Index{}, Category: CategoryUnknown, Color: ColorUnknown}, nil
	}
	v, err := s.Convert(*c)
	if err != nil {
		return Result{}, err
	}
	idx := Index{Value: v, Valid: true}
	return Result{Index: idx, Category: Category(idx), Color: Color(idx)}, nil
}
