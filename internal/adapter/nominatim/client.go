package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/city-explorer/internal/domain"
	"github.com/couchcryptid/city-explorer/internal/observability"
)

// Client implements domain.Geocoder using the OpenStreetMap Nominatim API.
// One GET per call; no retry, no caching.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim geocoding client. userAgent identifies the
// application per the Nominatim usage policy.
func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Geocode resolves a free-text address to its best match. Returns (nil, nil)
// when the provider has no result, which callers treat as "address not found".
func (c *Client) Geocode(ctx context.Context, address string) (*domain.GeocodingResult, error) {
	if address == "" {
		return nil, nil
	}

	params := url.Values{
		"format":         {"json"},
		"q":              {address},
		"limit":          {"1"},
		"addressdetails": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.GeocodeDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(results) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return nil, nil
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("parse lat %q: %w", r.Lat, err)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("parse lon %q: %w", r.Lon, err)
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()

	return &domain.GeocodingResult{
		Lat:        lat,
		Lng:        lng,
		Formatted:  r.DisplayName,
		City:       coalesce(r.Address.City, r.Address.Town, r.Address.Village),
		Country:    r.Address.Country,
		PostalCode: r.Address.Postcode,
		State:      coalesce(r.Address.State, r.Address.Province),
	}, nil
}

// coalesce returns the first non-empty value, implementing the ordered
// fallback chains for missing address components.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Nominatim API response types.

type searchResult struct {
	Lat         string        `json:"lat"`
	Lon         string        `json:"lon"`
	DisplayName string        `json:"display_name"`
	Address     addressDetail `json:"address"`
}

type addressDetail struct {
	City     string `json:"city"`
	Town     string `json:"town"`
	Village  string `json:"village"`
	Country  string `json:"country"`
	Postcode string `json:"postcode"`
	State    string `json:"state"`
	Province string `json:"province"`
}
