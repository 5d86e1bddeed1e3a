package firms

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchAreaConcatenatesProducts(t *testing.T) {
	var requested []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		// /{key}/{product}/{bbox}/{hours}
		if len(parts) != 4 {
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		product := parts[1]
		requested = append(requested, product)
		switch product {
		case "VIIRS_SNPP_NRT":
			fmt.Fprint(w, "latitude,longitude,acq_date,acq_time,confidence,satellite\n34.1,-118.2,2026-01-10,1200,h,N\n")
		case "VIIRS_NOAA20_NRT":
			fmt.Fprint(w, "latitude,longitude,acq_date,acq_time,confidence,satellite\n34.2,-118.3,2026-01-10,1230,n,N20\n")
		default:
			// Empty response for a product is normal.
		}
	}))
	defer ts.Close()

	client := NewClientWithBase("test-key", ts.URL, ts.URL)
	hotspots, raw, result, err := client.FetchArea(context.Background(), LACounty, 24)
	if err != nil {
		t.Fatalf("FetchArea: %v", err)
	}

	if len(requested) != len(AreaProducts) {
		t.Errorf("requested %d products, want %d", len(requested), len(AreaProducts))
	}
	if len(hotspots) != 2 {
		t.Errorf("parsed %d hotspots, want 2", len(hotspots))
	}
	if result.RecordCount != 2 {
		t.Errorf("record count = %d, want 2", result.RecordCount)
	}
	if len(raw) != 2 {
		t.Errorf("raw payloads = %d, want 2 (empty product omitted)", len(raw))
	}
}

func TestFetchAreaRequiresKey(t *testing.T) {
	client := NewClient("")
	if _, _, _, err := client.FetchArea(context.Background(), LACounty, 24); err == nil {
		t.Error("FetchArea without API key should fail")
	}
}

func TestFetchGlobal7DayFallsBackToMODIS(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "VIIRS") {
			// VIIRS empty: forces fallback.
			fmt.Fprint(w, "")
			return
		}
		fmt.Fprint(w, "latitude,longitude,acq_date,acq_time,confidence,satellite,instrument\n10.5,20.5,2026-01-08,0300,77,Terra,MODIS\n")
	}))
	defer ts.Close()

	client := NewClientWithBase("test-key", ts.URL, ts.URL)
	hotspots, _, result, err := client.FetchGlobal7Day(context.Background())
	if err != nil {
		t.Fatalf("FetchGlobal7Day: %v", err)
	}
	if len(hotspots) != 1 {
		t.Fatalf("parsed %d hotspots, want 1", len(hotspots))
	}
	if hotspots[0].Instrument != "MODIS" {
		t.Errorf("instrument = %q, want MODIS", hotspots[0].Instrument)
	}
	if result.RecordCount != 1 {
		t.Errorf("record count = %d, want 1", result.RecordCount)
	}
}
