package firms

import (
	"math"
	"sort"
)

const (
	// ConfidenceThreshold excludes low-confidence detections. Strictly
	// greater-than: a detection at exactly 80 does not count.
	ConfidenceThreshold = 80

	// ImpactRadiusKM is the inclusive search radius around the reference point.
	ImpactRadiusKM = 500.0

	// MaxNearbyFires caps the assessment at the nearest detections.
	MaxNearbyFires = 10
)

// NearbyFire is a hotspot annotated with its distance from the reference point.
type NearbyFire struct {
	Hotspot
	DistanceKM float64 `json:"distance_km"`
}

// AssessImpact filters hotspots to significant detections near the reference
// coordinate: confidence > 80, distance <= 500 km, sorted nearest-first,
// truncated to the 10 closest. An unknown reference, an empty input, or no
// survivors all produce an empty result; "no nearby significant fire
// activity" is a normal outcome, not an error.
func AssessImpact(ref *Coordinate, hotspots []Hotspot) []NearbyFire {
	if ref == nil || len(hotspots) == 0 {
		return nil
	}

	var nearby []NearbyFire
	for _, h := range hotspots {
		if h.Confidence <= ConfidenceThreshold {
			continue
		}
		dist := haversine(ref.Latitude, ref.Longitude, h.Latitude, h.Longitude)
		if dist > ImpactRadiusKM {
			continue
		}
		nearby = append(nearby, NearbyFire{Hotspot: h, DistanceKM: dist})
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKM < nearby[j].DistanceKM
	})

	if len(nearby) > MaxNearbyFires {
		nearby = nearby[:MaxNearbyFires]
	}
	return nearby
}

// haversine calculates the great-circle distance in km between two coordinates.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371 // Earth radius in km

	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}
