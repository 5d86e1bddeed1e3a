package openaq

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fireaq/fireaq/internal/firms"
)

func stubServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test-key" {
			http.Error(w, "missing key", http.StatusUnauthorized)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/sensors"):
			fmt.Fprint(w, `{"results":[{"id":901}]}`)
		case strings.Contains(r.URL.Path, "/sensors/901/hours"):
			// Deliberately out of order; the client must sort oldest-first.
			fmt.Fprint(w, `{"results":[
				{"value": 20.0, "period": {"datetimeTo": {"utc": "2026-01-10T14:00:00Z"}}},
				{"value": 10.0, "period": {"datetimeTo": {"utc": "2026-01-10T13:00:00Z"}}}
			]}`)
		case strings.HasSuffix(r.URL.Path, "/locations"):
			fmt.Fprint(w, `{"results":[{"id":42,"name":"Downtown LA","coordinates":{"latitude":34.05,"longitude":-118.25}}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchPM25Series(t *testing.T) {
	ts := stubServer(t)
	defer ts.Close()

	client := NewClientWithBase("test-key", ts.URL)
	series, result, err := client.FetchPM25Series(context.Background(), firms.LACounty, 20)
	if err != nil {
		t.Fatalf("FetchPM25Series: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("got %d series, want 1", len(series))
	}

	s := series[0]
	if s.LocationID != 42 || s.SensorID != 901 {
		t.Errorf("ids = %d/%d, want 42/901", s.LocationID, s.SensorID)
	}
	if s.LocationName != "Downtown LA" {
		t.Errorf("name = %q", s.LocationName)
	}
	if s.Location == nil || s.Location.Latitude != 34.05 {
		t.Errorf("location = %+v", s.Location)
	}

	if len(s.Hourly) != 2 {
		t.Fatalf("hourly window = %d values, want 2", len(s.Hourly))
	}
	// Oldest-first ordering after the client sorts the out-of-order payload.
	if *s.Hourly[0] != 10.0 || *s.Hourly[1] != 20.0 {
		t.Errorf("hourly = [%v, %v], want [10, 20]", *s.Hourly[0], *s.Hourly[1])
	}
	if s.Latest == nil || *s.Latest != 20.0 {
		t.Errorf("latest = %v, want 20", s.Latest)
	}
	want := time.Date(2026, 1, 10, 14, 0, 0, 0, time.UTC)
	if !s.ObservedAt.Equal(want) {
		t.Errorf("observed = %v, want %v", s.ObservedAt, want)
	}
	if result.RecordCount != 1 {
		t.Errorf("record count = %d, want 1", result.RecordCount)
	}
}

func TestFetchPM25SeriesLocationLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/locations"):
			fmt.Fprint(w, `{"results":[{"id":1,"name":"A"},{"id":2,"name":"B"},{"id":3,"name":"C"}]}`)
		case strings.HasSuffix(r.URL.Path, "/sensors"):
			fmt.Fprint(w, `{"results":[]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	client := NewClientWithBase("test-key", ts.URL)
	series, result, err := client.FetchPM25Series(context.Background(), firms.LACounty, 2)
	if err != nil {
		t.Fatalf("FetchPM25Series: %v", err)
	}
	if len(series) != 0 {
		t.Errorf("got %d series, want 0 (no sensors)", len(series))
	}
	if result.RecordCount != 0 {
		t.Errorf("record count = %d, want 0", result.RecordCount)
	}
}

func TestFetchPM25SeriesRequiresKey(t *testing.T) {
	client := NewClient("")
	if _, _, err := client.FetchPM25Series(context.Background(), firms.LACounty, 20); err == nil {
		t.Error("FetchPM25Series without key should fail")
	}
}
