package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Client handles communication with the Carnival backend API for bloco
// listings, single-bloco detail and proximity service lookups.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     hclog.Logger
}

// NewClient creates a new API client. The base URL and timeout come from
// configuration; there is no ambient singleton client.
func NewClient(baseURL string, timeout time.Duration, logger hclog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BlocoQuery holds the request parameters for a bloco listing request.
// Zero values are omitted from the query string.
type BlocoQuery struct {
	Latitude     float64
	Longitude    float64
	RadiusKm     float64
	Date         string // ISO YYYY-MM-DD
	Search       string
	Neighborhood string
	Page         int
	Limit        int
	ByProximity  bool // ask the backend to order by distance to (lat, lng)
}

// FetchBlocos queries the bloco listing endpoint.
// The response is normalized to one shape regardless of whether the backend
// answered with a bare array or a {total, blocos} envelope.
func (c *Client) FetchBlocos(ctx context.Context, q BlocoQuery) (*BlocosResponse, error) {
	params := url.Values{}
	if q.Latitude != 0 || q.Longitude != 0 {
		params.Set("lat", formatFloat(q.Latitude))
		params.Set("lng", formatFloat(q.Longitude))
		radius := q.RadiusKm
		if radius <= 0 {
			radius = 10
		}
		params.Set("raio", formatFloat(radius))
	}
	if q.Date != "" {
		params.Set("data", q.Date)
	}
	if q.Search != "" {
		params.Set("busca", q.Search)
	}
	if q.Neighborhood != "" {
		params.Set("bairro", q.Neighborhood)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.ByProximity {
		params.Set("proximo", "true")
	}

	var resp BlocosResponse
	if err := c.getJSON(ctx, "/blocos", params, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched blocos",
		"date", q.Date,
		"search", q.Search,
		"count", len(resp.Blocos),
		"total", resp.Total)

	return &resp, nil
}

// FetchBloco retrieves the detail record for one bloco, including the
// backend-resolved nearby services and transit links.
func (c *Client) FetchBloco(ctx context.Context, id string) (*Bloco, error) {
	var bloco Bloco
	if err := c.getJSON(ctx, "/blocos/"+url.PathEscape(id), nil, &bloco); err != nil {
		return nil, err
	}
	return &bloco, nil
}

// FetchRestrooms queries restroom points near a coordinate.
// A non-positive radius falls back to DefaultRestroomRadiusKm.
func (c *Client) FetchRestrooms(ctx context.Context, lat, lng, radiusKm float64) ([]Service, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultRestroomRadiusKm
	}
	return c.fetchServices(ctx, "/banheiros", lat, lng, radiusKm)
}

// FetchHospitals queries hospitals near a coordinate.
// A non-positive radius falls back to DefaultHospitalRadiusKm.
func (c *Client) FetchHospitals(ctx context.Context, lat, lng, radiusKm float64) ([]Service, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultHospitalRadiusKm
	}
	return c.fetchServices(ctx, "/hospitais", lat, lng, radiusKm)
}

func (c *Client) fetchServices(ctx context.Context, path string, lat, lng, radiusKm float64) ([]Service, error) {
	params := url.Values{}
	params.Set("lat", formatFloat(lat))
	params.Set("lng", formatFloat(lng))
	params.Set("raio", formatFloat(radiusKm))

	var services []Service
	if err := c.getJSON(ctx, path, params, &services); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched proximity services", "path", path, "radius_km", radiusKm, "count", len(services))
	return services, nil
}

// Ping checks backend liveness.
func (c *Client) Ping(ctx context.Context) error {
	var out json.RawMessage
	return c.getJSON(ctx, "/ping", nil, &out)
}

// getJSON executes a GET request and decodes the JSON body into out.
// HTTP failures are classified by status code; every failure fails the
// caller's whole operation (no retry, no partial tolerance).
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	requestURL := c.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Success - parse response below
	case http.StatusNotFound:
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("not found (HTTP 404): %s", apiErr.Error())
		}
		return fmt.Errorf("not found (HTTP 404): %s", path)
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limit exceeded (HTTP 429): too many requests")
	case http.StatusBadRequest:
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("bad request (HTTP 400): %s", apiErr.Error())
		}
		return fmt.Errorf("bad request (HTTP 400): invalid request parameters")
	case http.StatusInternalServerError:
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("server error (HTTP 500): %s", apiErr.Error())
		}
		return fmt.Errorf("server error (HTTP 500): Carnival API internal error")
	default:
		return fmt.Errorf("unexpected HTTP status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", path, err)
	}

	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
