package firms

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fireaq/fireaq/internal/httputil"
)

const (
	areaBaseURL   = "https://firms.modaps.eosdis.nasa.gov/api/area/csv"
	globalBaseURL = "https://firms.modaps.eosdis.nasa.gov/api/v1/fire"
)

// AreaProducts are the VIIRS near-real-time products fetched for bounding-box
// queries. Responses for all three are concatenated.
var AreaProducts = []string{"VIIRS_SNPP_NRT", "VIIRS_NOAA20_NRT", "VIIRS_NOAA21_NRT"}

// Client fetches fire hotspot detections from the NASA FIRMS API.
type Client struct {
	apiKey  string
	client  *http.Client
	areaURL string
	globURL string
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		client:  httputil.NewClient(),
		areaURL: areaBaseURL,
		globURL: globalBaseURL,
	}
}

// NewClientWithBase is used by tests to point the client at a stub server.
func NewClientWithBase(apiKey, areaURL, globalURL string) *Client {
	c := NewClient(apiKey)
	c.areaURL = areaURL
	c.globURL = globalURL
	return c
}

// FetchArea retrieves detections for a bounding box over the last N hours
// from each VIIRS product and concatenates them. Raw CSV bodies are returned
// keyed by product so the caller can archive them. A product with an empty
// response is normal for short windows.
func (c *Client) FetchArea(ctx context.Context, bbox BBox, hours int) ([]Hotspot, map[string]string, *httputil.FetchResult, error) {
	if c.apiKey == "" {
		return nil, nil, nil, fmt.Errorf("FIRMS map key not configured")
	}

	result := &httputil.FetchResult{}
	raw := make(map[string]string, len(AreaProducts))
	var hotspots []Hotspot

	for _, product := range AreaProducts {
		url := fmt.Sprintf("%s/%s/%s/%g,%g,%g,%g/%d",
			c.areaURL, c.apiKey, product, bbox.West, bbox.South, bbox.East, bbox.North, hours)

		body, status, err := c.get(ctx, url)
		result.HTTPStatus = status
		if err != nil {
			result.Error = err
			return hotspots, raw, result, fmt.Errorf("fetch %s: %w", product, err)
		}
		result.ResponseSize += len(body)

		if len(bytes.TrimSpace(body)) == 0 {
			continue
		}
		raw[product] = string(body)

		parsed, parseErrs, err := ParseCSV(bytes.NewReader(body))
		if err != nil {
			result.ParseErrors++
			result.ParseError = err.Error()
			continue
		}
		result.ParseErrors += parseErrs
		if parseErrs > 0 && result.ParseError == "" {
			result.ParseError = fmt.Sprintf("%s: %d rows skipped", product, parseErrs)
		}
		for i := range parsed {
			if parsed[i].Satellite == "" {
				parsed[i].Satellite = product
			}
		}
		hotspots = append(hotspots, parsed...)
		result.RecordCount += len(parsed)
	}

	return hotspots, raw, result, nil
}

// FetchGlobal7Day retrieves the worldwide 7-day feed, trying the
// higher-resolution VIIRS product first and falling back to MODIS when VIIRS
// is empty or unavailable.
func (c *Client) FetchGlobal7Day(ctx context.Context) ([]Hotspot, string, *httputil.FetchResult, error) {
	result := &httputil.FetchResult{}

	for _, product := range []string{"VIIRS_NOAA20_NRT", "MODIS_NRT"} {
		url := fmt.Sprintf("%s/%s/csv/world/7d", c.globURL, product)
		body, status, err := c.get(ctx, url)
		result.HTTPStatus = status
		if err != nil {
			result.Error = err
			continue
		}
		result.ResponseSize = len(body)

		parsed, parseErrs, err := ParseCSV(bytes.NewReader(body))
		if err != nil {
			result.ParseErrors++
			result.ParseError = err.Error()
			continue
		}
		result.ParseErrors = parseErrs
		if len(parsed) == 0 {
			continue
		}
		for i := range parsed {
			if parsed[i].Satellite == "" {
				parsed[i].Satellite = product
			}
		}
		result.RecordCount = len(parsed)
		result.Error = nil
		return parsed, string(body), result, nil
	}

	if result.Error != nil {
		return nil, "", result, fmt.Errorf("fetch global hotspots: %w", result.Error)
	}
	return nil, "", result, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	var body []byte
	var status int

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("User-Agent", "fireaq/1.0")

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
