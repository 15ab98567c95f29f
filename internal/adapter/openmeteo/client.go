package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/city-explorer/internal/domain"
	"github.com/couchcryptid/city-explorer/internal/observability"
)

// Client implements domain.WeatherProvider using the Open-Meteo forecast API.
// No API key required.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo weather client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// CurrentWeather fetches current conditions for a point.
func (c *Client) CurrentWeather(ctx context.Context, lat, lng float64) (*domain.WeatherData, error) {
	params := url.Values{
		"latitude":  {strconv.FormatFloat(lat, 'f', 4, 64)},
		"longitude": {strconv.FormatFloat(lng, 'f', 4, 64)},
		"current":   {"temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, body)
	}

	var meteoResp response
	if err := json.NewDecoder(resp.Body).Decode(&meteoResp); err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.metrics.WeatherRequests.WithLabelValues("success").Inc()

	cur := meteoResp.Current
	return &domain.WeatherData{
		Temperature: cur.Temperature,
		Condition:   conditionForCode(cur.WeatherCode),
		Humidity:    int(math.Round(cur.Humidity)),
		WindSpeed:   cur.WindSpeed,
	}, nil
}

// conditionForCode collapses WMO weather interpretation codes into the four
// display classes the UI knows how to render.
func conditionForCode(code int) string {
	switch {
	case code == 0 || code == 1:
		return "sunny"
	case code >= 71 && code <= 77 || code == 85 || code == 86:
		return "snowy"
	case code >= 51 && code <= 67 || code >= 80 && code <= 82 || code >= 95:
		return "rainy"
	default:
		return "cloudy"
	}
}

// Open-Meteo API response types.

type response struct {
	Current current `json:"current"`
}

type current struct {
	Temperature float64 `json:"temperature_2m"`
	Humidity    float64 `json:"relative_humidity_2m"`
	WeatherCode int     `json:"weather_code"`
	WindSpeed   float64 `json:"wind_speed_10m"`
}
