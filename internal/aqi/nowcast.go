package aqi

import "math"

// NowCast computes the US EPA NowCast average of up to 12 hourly PM2.5
// readings. The input must be ordered oldest-first; nil entries mark missing
// hours and are dropped. The ordering is load-bearing: the weight w^i is
// assigned to the i-th most recent valid reading, so the sequence is reversed
// internally before weighting.
//
// Returns nil when fewer than 2 valid readings remain.
func NowCast(hourly []*float64) *float64 {
	var vals []float64
	for _, v := range hourly {
		if v == nil || math.IsNaN(*v) {
			continue
		}
		vals = append(vals, *v)
	}
	if len(vals) < 2 {
		return nil
	}

	cmin, cmax := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < cmin {
			cmin = v
		}
		if v > cmax {
			cmax = v
		}
	}
	if cmax <= 0 {
		zero := 0.0
		return &zero
	}

	// Volatile windows decay faster; the weight floor of 0.5 is part of the
	// published method.
	w := cmin / cmax
	if w < 0.5 {
		w = 0.5
	}

	var sum, wsum float64
	n := len(vals)
	for i := 0; i < n; i++ {
		// vals is oldest-first; vals[n-1-i] is the i-th most recent.
		weight := math.Pow(w, float64(i))
		sum += weight * vals[n-1-i]
		wsum += weight
	}
	result := sum / wsum
	return &result
}
