package aqi

// Category labels and display colors follow the EPA AQI color convention.
// These ranges are in AQI space and are fixed across both breakpoint scales.
const (
	CategoryGood      = "Good"
	CategoryModerate  = "Moderate"
	CategoryUSG       = "Unhealthy for Sensitive Groups"
	CategoryUnhealthy = "Unhealthy"
	CategoryVery      = "Very Unhealthy"
	CategoryHazardous = "Hazardous"
	CategoryUnknown   = "Unknown"

	ColorGood      = "#00e400"
	ColorModerate  = "#ffff00"
	ColorUSG       = "#ff7e00"
	ColorUnhealthy = "#ff0000"
	ColorVery      = "#8f3f97"
	ColorHazardous = "#7e0023"
	ColorUnknown   = "#999999"
)

// Category returns the descriptive label for an AQI index. An unknown index
// maps to "Unknown", never to a numeric default.
func Category(idx Index) string {
	if !idx.Valid {
		return CategoryUnknown
	}
	switch {
	case idx.Value <= 50:
		return CategoryGood
	case idx.Value <= 100:
		return CategoryModerate
	case idx.Value <= 150:
		return CategoryUSG
	case idx.Value <= 200:
		return CategoryUnhealthy
	case idx.Value <= 300:
		return CategoryVery
	default:
		return CategoryHazardous
	}
}

// Color returns the display color token for an AQI index.
func Color(idx Index) string {
	if !idx.Valid {
		return ColorUnknown
	}
	switch {
	case idx.Value <= 50:
		return ColorGood
	case idx.Value <= 100:
		return ColorModerate
	case idx.Value <= 150:
		return ColorUSG
	case idx.Value <= 200:
		return ColorUnhealthy
	case idx.Value <= 300:
		return ColorVery
	default:
		return ColorHazardous
	}
}
