// Package weather is a best-effort client for current conditions at the
// reference coordinate. Failures here are never fatal: callers fall back to
// placeholder display values.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL points at the public Open-Meteo forecast API.
const DefaultBaseURL = "https://api.open-meteo.com"

// Placeholder is what the UI shows when no reading is available.
const Placeholder = "--"

// Current is one current-conditions reading.
type Current struct {
	Temperature float64 `json:"temperature"`
	WindSpeed   float64 `json:"windspeed"`
}

// Display formats a reading for the UI.
func (c Current) Display() string {
	return strconv.FormatFloat(c.Temperature, 'f', 1, 64) + "°C"
}

// Client fetches current conditions with a short timeout of its own, so a
// slow weather upstream cannot stall the rest of a screen.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a weather client. An empty baseURL selects the public
// Open-Meteo endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Fetch performs a single GET for current temperature and wind speed.
func (c *Client) Fetch(ctx context.Context, lat, lng float64) (Current, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("current_weather", "true")

	requestURL := c.baseURL + "/v1/forecast?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return Current{}, fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Current{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Current{}, fmt.Errorf("unexpected weather HTTP status %d", resp.StatusCode)
	}

	var body struct {
		CurrentWeather Current `json:"current_weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Current{}, fmt.Errorf("failed to parse weather response: %w", err)
	}

	return body.CurrentWeather, nil
}
