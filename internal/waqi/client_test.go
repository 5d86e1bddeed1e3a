package waqi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const feedFixture = `{
  "status": "ok",
  "data": {
    "aqi": 152,
    "iaqi": {
      "pm25": {"v": 58.4},
      "pm10": {"v": 80}
    },
    "city": {
      "name": "Los Angeles-North Main Street",
      "geo": [34.06659, -118.22688]
    },
    "time": {"iso": "2026-01-10T14:00:00-08:00"}
  }
}`

func TestFetchCity(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "test-token" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, feedFixture)
	}))
	defer ts.Close()

	client := NewClientWithBase("test-token", ts.URL)
	reading, raw, result, err := client.FetchCity(context.Background(), "los-angeles")
	if err != nil {
		t.Fatalf("FetchCity: %v", err)
	}

	if reading.Station != "Los Angeles-North Main Street" {
		t.Errorf("station = %q", reading.Station)
	}
	if reading.PM25 == nil || *reading.PM25 != 58.4 {
		t.Errorf("pm25 = %v, want 58.4", reading.PM25)
	}
	if reading.Location == nil {
		t.Fatal("location should be resolved")
	}
	if reading.Location.Latitude != 34.06659 {
		t.Errorf("latitude = %v", reading.Location.Latitude)
	}
	if raw == "" {
		t.Error("raw body should be returned for archiving")
	}
	if result.RecordCount != 1 {
		t.Errorf("record count = %d, want 1", result.RecordCount)
	}
}

func TestFetchCityMissingPM25(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok","data":{"iaqi":{"pm10":{"v":40}},"city":{"name":"Somewhere","geo":[10,20]},"time":{"iso":"2026-01-10T14:00:00Z"}}}`)
	}))
	defer ts.Close()

	client := NewClientWithBase("t", ts.URL)
	reading, _, _, err := client.FetchCity(context.Background(), "somewhere")
	if err != nil {
		t.Fatalf("FetchCity: %v", err)
	}
	// Missing pollutant is an unknown reading, not an error and not zero.
	if reading.PM25 != nil {
		t.Errorf("pm25 = %v, want nil", *reading.PM25)
	}
}

func TestFetchCityBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","data":{}}`)
	}))
	defer ts.Close()

	client := NewClientWithBase("t", ts.URL)
	if _, _, _, err := client.FetchCity(context.Background(), "nowhere"); err == nil {
		t.Error("non-ok feed status should be an error")
	}
}

func TestFetchCityRequiresToken(t *testing.T) {
	client := NewClient("")
	if _, _, _, err := client.FetchCity(context.Background(), "los-angeles"); err == nil {
		t.Error("FetchCity without token should fail")
	}
}
