package openaq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fireaq/fireaq/internal/firms"
	"github.com/fireaq/fireaq/internal/httputil"
)

const (
	defaultBaseURL = "https://api.openaq.org/v3"

	// pm25ParameterID is OpenAQ's parameter id for PM2.5.
	pm25ParameterID = 2

	// historyWindow requests a bit more than 12 hours so the NowCast window
	// is complete even when the newest hour is still settling.
	historyWindow = 13 * time.Hour

	// maxHourlyValues is the NowCast window size.
	maxHourlyValues = 12
)

// Client fetches per-sensor hourly PM2.5 series from the OpenAQ v3 API.
type Client struct {
	apiKey  string
	client  *http.Client
	baseURL string
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		client:  httputil.NewClient(),
		baseURL: defaultBaseURL,
	}
}

// NewClientWithBase is used by tests to point the client at a stub server.
func NewClientWithBase(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

type locationsResponse struct {
	Results []locationResult `json:"results"`
}

type locationResult struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Coordinates *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"coordinates"`
}

type sensorsResponse struct {
	Results []struct {
		ID int `json:"id"`
	} `json:"results"`
}

type hoursResponse struct {
	Results []struct {
		Value  *float64 `json:"value"`
		Period struct {
			DatetimeTo struct {
				UTC string `json:"utc"`
			} `json:"datetimeTo"`
		} `json:"period"`
	} `json:"results"`
}

// SensorSeries is the validated hourly PM2.5 window for one sensor, ready for
// NowCast scoring. Hourly is ordered oldest-first, at most 12 entries; Latest
// is nil when the window is empty.
type SensorSeries struct {
	LocationID   int
	LocationName string
	SensorID     int
	Location     *firms.Coordinate
	Hourly       []*float64
	HourlyAt     []time.Time
	Latest       *float64
	ObservedAt   time.Time
}

// FetchPM25Series discovers PM2.5 locations inside the bounding box and pulls
// the last 12 hourly values for each of their sensors. Locations beyond
// locationLimit are skipped; per-sensor failures skip that sensor rather than
// failing the whole sweep.
func (c *Client) FetchPM25Series(ctx context.Context, bbox firms.BBox, locationLimit int) ([]SensorSeries, *httputil.FetchResult, error) {
	if c.apiKey == "" {
		return nil, nil, fmt.Errorf("OpenAQ API key not configured")
	}

	result := &httputil.FetchResult{}

	url := fmt.Sprintf("%s/locations?bbox=%g,%g,%g,%g&parameters_id=%d&limit=100&page=1&sort=desc&order_by=lastUpdated",
		c.baseURL, bbox.West, bbox.South, bbox.East, bbox.North, pm25ParameterID)
	body, status, err := c.get(ctx, url)
	result.HTTPStatus = status
	if err != nil {
		result.Error = err
		return nil, result, fmt.Errorf("fetch locations: %w", err)
	}
	result.ResponseSize += len(body)

	var locs locationsResponse
	if err := json.Unmarshal(body, &locs); err != nil {
		result.ParseErrors++
		result.ParseError = err.Error()
		return nil, result, fmt.Errorf("unmarshal locations: %w", err)
	}

	if locationLimit > 0 && len(locs.Results) > locationLimit {
		locs.Results = locs.Results[:locationLimit]
	}

	now := time.Now().UTC()
	from := now.Add(-historyWindow)

	var series []SensorSeries
	for _, loc := range locs.Results {
		sensorIDs, err := c.fetchSensorIDs(ctx, loc.ID, result)
		if err != nil {
			result.ParseErrors++
			continue
		}

		for _, sid := range sensorIDs {
			s, err := c.fetchHourly(ctx, sid, from, now, result)
			if err != nil {
				result.ParseErrors++
				continue
			}
			s.LocationID = loc.ID
			s.LocationName = loc.Name
			s.SensorID = sid
			if loc.Coordinates != nil {
				s.Location = &firms.Coordinate{
					Latitude:  loc.Coordinates.Latitude,
					Longitude: loc.Coordinates.Longitude,
				}
			}
			series = append(series, s)
			result.RecordCount++
		}
	}

	return series, result, nil
}

func (c *Client) fetchSensorIDs(ctx context.Context, locationID int, result *httputil.FetchResult) ([]int, error) {
	url := fmt.Sprintf("%s/locations/%d/sensors?parameters_id=%d&limit=10", c.baseURL, locationID, pm25ParameterID)
	body, status, err := c.get(ctx, url)
	result.HTTPStatus = status
	if err != nil {
		return nil, err
	}
	result.ResponseSize += len(body)

	var sensors sensorsResponse
	if err := json.Unmarshal(body, &sensors); err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(sensors.Results))
	for _, s := range sensors.Results {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func (c *Client) fetchHourly(ctx context.Context, sensorID int, from, to time.Time, result *httputil.FetchResult) (SensorSeries, error) {
	url := fmt.Sprintf("%s/sensors/%d/hours?date_from=%s&date_to=%s&limit=1000",
		c.baseURL, sensorID, from.Format("2006-01-02T15:04:05Z"), to.Format("2006-01-02T15:04:05Z"))
	body, status, err := c.get(ctx, url)
	result.HTTPStatus = status
	if err != nil {
		return SensorSeries{}, err
	}
	result.ResponseSize += len(body)

	var hours hoursResponse
	if err := json.Unmarshal(body, &hours); err != nil {
		return SensorSeries{}, err
	}

	type sample struct {
		at    time.Time
		value *float64
	}
	var samples []sample
	for _, r := range hours.Results {
		at, err := time.Parse(time.RFC3339, r.Period.DatetimeTo.UTC)
		if err != nil {
			continue
		}
		samples = append(samples, sample{at: at.UTC(), value: r.Value})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].at.Before(samples[j].at) })

	if len(samples) > maxHourlyValues {
		samples = samples[len(samples)-maxHourlyValues:]
	}

	s := SensorSeries{}
	for _, smp := range samples {
		s.Hourly = append(s.Hourly, smp.value)
		s.HourlyAt = append(s.HourlyAt, smp.at)
	}
	if n := len(samples); n > 0 {
		s.Latest = samples[n-1].value
		s.ObservedAt = samples[n-1].at
	}
	return s, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	var body []byte
	var status int

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("retryable status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, status, err
	}
	return body, status, nil
}
