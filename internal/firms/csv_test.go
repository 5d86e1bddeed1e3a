package firms

import (
	"strings"
	"testing"
	"time"
)

const sampleVIIRS = `latitude,longitude,bright_ti4,scan,track,acq_date,acq_time,satellite,instrument,confidence,version,bright_ti5,frp,daynight
34.123,-118.456,330.5,0.39,0.36,2026-01-10,947,N20,VIIRS,n,2.0NRT,290.1,4.75,D
34.200,-118.300,345.2,0.41,0.37,2026-01-10,47,N20,VIIRS,h,2.0NRT,295.7,18.30,N
`

const sampleMODIS = `latitude,longitude,brightness,scan,track,acq_date,acq_time,satellite,instrument,confidence,version,bright_t31,frp,daynight
34.500,-118.100,320.1,1.1,1.0,2026-01-09,2215,Terra,MODIS,85,6.1NRT,300.0,25.4,N
`

func TestParseCSVVIIRS(t *testing.T) {
	hotspots, parseErrs, err := ParseCSV(strings.NewReader(sampleVIIRS))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if parseErrs != 0 {
		t.Errorf("parse errors = %d, want 0", parseErrs)
	}
	if len(hotspots) != 2 {
		t.Fatalf("parsed %d hotspots, want 2", len(hotspots))
	}

	h := hotspots[0]
	if h.Latitude != 34.123 || h.Longitude != -118.456 {
		t.Errorf("coordinates = %v,%v", h.Latitude, h.Longitude)
	}
	if h.Confidence != confidenceNominal {
		t.Errorf("confidence = %d, want %d (nominal)", h.Confidence, confidenceNominal)
	}
	if h.FRP != 4.75 {
		t.Errorf("frp = %v, want 4.75", h.FRP)
	}
	// acq_time "947" means 09:47 UTC.
	want := time.Date(2026, 1, 10, 9, 47, 0, 0, time.UTC)
	if !h.AcquiredAt.Equal(want) {
		t.Errorf("acquired = %v, want %v", h.AcquiredAt, want)
	}

	// acq_time "47" means 00:47 UTC.
	want = time.Date(2026, 1, 10, 0, 47, 0, 0, time.UTC)
	if !hotspots[1].AcquiredAt.Equal(want) {
		t.Errorf("acquired = %v, want %v", hotspots[1].AcquiredAt, want)
	}
	if hotspots[1].Confidence != confidenceHigh {
		t.Errorf("confidence = %d, want %d (high)", hotspots[1].Confidence, confidenceHigh)
	}
}

func TestParseCSVMODISNumericConfidence(t *testing.T) {
	hotspots, _, err := ParseCSV(strings.NewReader(sampleMODIS))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(hotspots) != 1 {
		t.Fatalf("parsed %d hotspots, want 1", len(hotspots))
	}
	if hotspots[0].Confidence != 85 {
		t.Errorf("confidence = %d, want 85", hotspots[0].Confidence)
	}
	if hotspots[0].Instrument != "MODIS" {
		t.Errorf("instrument = %q, want MODIS", hotspots[0].Instrument)
	}
}

func TestParseCSVEmptyBody(t *testing.T) {
	hotspots, parseErrs, err := ParseCSV(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseCSV of empty body: %v", err)
	}
	if len(hotspots) != 0 || parseErrs != 0 {
		t.Errorf("got %d hotspots, %d errors, want none", len(hotspots), parseErrs)
	}
}

func TestParseCSVSkipsBadRows(t *testing.T) {
	payload := `latitude,longitude,acq_date,acq_time,confidence,frp
34.1,-118.2,2026-01-10,1200,90,5.0
not-a-number,-118.3,2026-01-10,1200,90,5.0
34.2,-118.3,2026-01-10,1200,banana,5.0
34.3,-118.4,2026-01-10,1200,250,5.0
`
	hotspots, parseErrs, err := ParseCSV(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(hotspots) != 1 {
		t.Errorf("parsed %d hotspots, want 1", len(hotspots))
	}
	if parseErrs != 3 {
		t.Errorf("parse errors = %d, want 3", parseErrs)
	}
}

func TestParseCSVMissingColumn(t *testing.T) {
	payload := "latitude,longitude\n34.1,-118.2\n"
	if _, _, err := ParseCSV(strings.NewReader(payload)); err == nil {
		t.Error("ParseCSV without required columns should fail")
	}
}
