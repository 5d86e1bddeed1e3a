package firms

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// VIIRS reports confidence as l/n/h rather than a number. Normalize the
// categories onto the 0-100 scale MODIS uses so the impact threshold applies
// uniformly.
const (
	confidenceLow     = 30
	confidenceNominal = 60
	confidenceHigh    = 90
)

// ParseCSV decodes a FIRMS area/global CSV payload into hotspot records.
// Rows that fail to parse are counted and skipped rather than aborting the
// whole payload; an empty body yields no records and no error.
func ParseCSV(r io.Reader) ([]Hotspot, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"latitude", "longitude", "acq_date", "acq_time", "confidence"} {
		if _, ok := col[required]; !ok {
			return nil, 0, fmt.Errorf("missing column %q", required)
		}
	}

	var (
		hotspots    []Hotspot
		parseErrors int
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors++
			continue
		}

		h, err := parseRow(row, col)
		if err != nil {
			parseErrors++
			continue
		}
		hotspots = append(hotspots, h)
	}

	return hotspots, parseErrors, nil
}

func parseRow(row []string, col map[string]int) (Hotspot, error) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	lat, err := strconv.ParseFloat(field("latitude"), 64)
	if err != nil {
		return Hotspot{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(field("longitude"), 64)
	if err != nil {
		return Hotspot{}, fmt.Errorf("longitude: %w", err)
	}

	conf, err := parseConfidence(field("confidence"))
	if err != nil {
		return Hotspot{}, err
	}

	acquired, err := parseAcquired(field("acq_date"), field("acq_time"))
	if err != nil {
		return Hotspot{}, err
	}

	h := Hotspot{
		Latitude:   lat,
		Longitude:  lon,
		Confidence: conf,
		AcquiredAt: acquired,
		Satellite:  field("satellite"),
		Instrument: field("instrument"),
		DayNight:   field("daynight"),
	}

	if frpStr := field("frp"); frpStr != "" {
		if frp, err := strconv.ParseFloat(frpStr, 64); err == nil {
			h.FRP = frp
		}
	}

	return h, nil
}

func parseConfidence(s string) (int, error) {
	switch strings.ToLower(s) {
	case "l", "low":
		return confidenceLow, nil
	case "n", "nominal":
		return confidenceNominal, nil
	case "h", "high":
		return confidenceHigh, nil
	}
	conf, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("confidence %q: %w", s, err)
	}
	if conf < 0 || conf > 100 {
		return 0, fmt.Errorf("confidence %d out of range", conf)
	}
	return conf, nil
}

// parseAcquired combines acq_date (2006-01-02) with acq_time (HHMM, not
// always zero-padded: "47" means 00:47).
func parseAcquired(date, hhmm string) (time.Time, error) {
	for len(hhmm) < 4 {
		hhmm = "0" + hhmm
	}
	t, err := time.Parse("2006-01-02 1504", date+" "+hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("acquired time: %w", err)
	}
	return t.UTC(), nil
}
