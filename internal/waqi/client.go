package waqi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fireaq/fireaq/internal/firms"
	"github.com/fireaq/fireaq/internal/httputil"
)

const defaultBaseURL = "https://api.waqi.info"

// Client fetches the WAQI city feed.
type Client struct {
	token   string
	client  *http.Client
	baseURL string
}

func NewClient(token string) *Client {
	return &Client{
		token:   token,
		client:  httputil.NewClient(),
		baseURL: defaultBaseURL,
	}
}

// NewClientWithBase is used by tests to point the client at a stub server.
func NewClientWithBase(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = baseURL
	return c
}

// feedResponse mirrors the WAQI feed payload. Fields the scoring engine needs
// are typed here and validated before anything leaves this package; the rest
// of the payload is ignored.
type feedResponse struct {
	Status string `json:"status"`
	Data   struct {
		IAQI map[string]struct {
			V *float64 `json:"v"`
		} `json:"iaqi"`
		City struct {
			Name string    `json:"name"`
			Geo  []float64 `json:"geo"`
		} `json:"city"`
		Time struct {
			ISO string `json:"iso"`
		} `json:"time"`
	} `json:"data"`
}

// CityReading is a validated snapshot of a city's PM2.5 state. PM25 is nil
// when the station does not report the pollutant; that is a normal outcome
// distinct from a fetch failure.
type CityReading struct {
	Station    string
	PM25       *float64
	Location   *firms.Coordinate
	ObservedAt time.Time
}

// FetchCity retrieves the feed for a city and validates it at the boundary.
func (c *Client) FetchCity(ctx context.Context, city string) (*CityReading, string, *httputil.FetchResult, error) {
	if c.token == "" {
		return nil, "", nil, fmt.Errorf("WAQI token not configured")
	}

	endpoint := fmt.Sprintf("%s/feed/%s/?token=%s", c.baseURL, url.PathEscape(city), url.QueryEscape(c.token))
	result := &httputil.FetchResult{}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch feed: %w", err)
		}
		defer resp.Body.Close()

		result.HTTPStatus = resp.StatusCode
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
		result.Error = err
		return nil, "", result, err
	}
	result.ResponseSize = len(body)

	var data feedResponse
	if err := json.Unmarshal(body, &data); err != nil {
		result.ParseErrors = 1
		result.ParseError = err.Error()
		return nil, string(body), result, fmt.Errorf("unmarshal feed: %w", err)
	}

	if data.Status != "ok" {
		return nil, string(body), result, fmt.Errorf("feed status %q for %s", data.Status, city)
	}

	reading := &CityReading{Station: data.Data.City.Name}
	if reading.Station == "" {
		reading.Station = city
	}

	if pm25, ok := data.Data.IAQI["pm25"]; ok && pm25.V != nil {
		v := *pm25.V
		reading.PM25 = &v
	}

	// geo is [lat, lon]; anything else leaves the location unknown.
	if geo := data.Data.City.Geo; len(geo) == 2 {
		reading.Location = &firms.Coordinate{Latitude: geo[0], Longitude: geo[1]}
	}

	if t, err := time.Parse(time.RFC3339, data.Data.Time.ISO); err == nil {
		reading.ObservedAt = t.UTC()
	} else {
		reading.ObservedAt = time.Now().UTC()
	}

	result.RecordCount = 1
	return reading, string(body), result, nil
}
