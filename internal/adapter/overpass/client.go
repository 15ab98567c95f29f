package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/city-explorer/internal/domain"
	"github.com/couchcryptid/city-explorer/internal/observability"
)

// maxPlaces caps how many elements of the provider response are mapped, in
// provider order with no re-sorting.
const maxPlaces = 10

// amenityCategories is the fixed allow-list of amenity tags a query selects.
// Covers dining, lodging, healthcare, education, recreation, civic, shopping,
// and transit features.
var amenityCategories = []string{
	"restaurant", "cafe", "bar", "pub", "fast_food", "food_court", "ice_cream", "bakery",
	"hotel", "hostel", "guest_house",
	"hospital", "clinic", "pharmacy", "dentist", "veterinary", "nursing_home",
	"school", "university", "college", "kindergarten", "library", "research_institute",
	"park", "playground", "swimming_pool", "gym", "sports_centre", "stadium", "cinema",
	"theatre", "museum", "gallery", "zoo", "aquarium", "nightclub", "casino",
	"church", "mosque", "synagogue", "temple",
	"police", "fire_station", "town_hall", "courthouse", "embassy", "community_centre",
	"post_office", "bank", "marketplace", "supermarket", "mall", "convenience",
	"bus_station", "railway_station", "subway_station", "taxi_stand", "car_rental",
	"fuel", "charging_station", "parking", "bicycle_rental",
	"tourist_information", "attraction", "monument", "viewpoint", "fountain",
}

// Client implements domain.PlacesFinder using the Overpass API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Overpass places client.
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

// NearbyPlaces queries tagged map features within radiusMeters of the origin
// and returns at most the first ten in provider order, with distances from
// the origin. One POST per call; no pagination.
func (c *Client) NearbyPlaces(ctx context.Context, lat, lng float64, radiusMeters int) ([]domain.PointOfInterest, error) {
	query := buildQuery(lat, lng, radiusMeters)
	body := url.Values{"data": {query}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/interpreter", strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.PlacesRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.PlacesDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.PlacesRequests.WithLabelValues("error").Inc()
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("overpass API error: status %d: %s", resp.StatusCode, payload)
	}

	var overpassResp response
	if err := json.NewDecoder(resp.Body).Decode(&overpassResp); err != nil {
		c.metrics.PlacesRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	elements := overpassResp.Elements
	if len(elements) > maxPlaces {
		elements = elements[:maxPlaces]
	}

	places := make([]domain.PointOfInterest, 0, len(elements))
	for _, el := range elements {
		places = append(places, mapElement(el, lat, lng))
	}

	outcome := "success"
	if len(places) == 0 {
		outcome = "empty"
	}
	c.metrics.PlacesRequests.WithLabelValues(outcome).Inc()

	return places, nil
}

// buildQuery renders the Overpass QL query for the fixed category allow-list
// around an origin.
func buildQuery(lat, lng float64, radiusMeters int) string {
	filter := strings.Join(amenityCategories, "|")
	around := fmt.Sprintf("(around:%d,%f,%f)", radiusMeters, lat, lng)

	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n(\n")
	for _, kind := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&b, "  %s[\"amenity\"~\"%s\"]%s;\n", kind, filter, around)
	}
	b.WriteString(");\nout center meta;")
	return b.String()
}

// mapElement converts one Overpass element into a PointOfInterest, resolving
// a representative coordinate and applying the name fallback chain.
func mapElement(el element, originLat, originLng float64) domain.PointOfInterest {
	// Nodes carry their own position; ways and relations carry a computed
	// center. The query origin is a last resort that valid data never hits.
	elLat, elLng := originLat, originLng
	switch {
	case el.Lat != nil && el.Lon != nil:
		elLat, elLng = *el.Lat, *el.Lon
	case el.Center != nil:
		elLat, elLng = el.Center.Lat, el.Center.Lon
	}

	name := el.Tags.Name
	if name == "" {
		name = el.Tags.Amenity
	}
	if name == "" {
		name = "Unknown"
	}

	poiType := el.Tags.Amenity
	if poiType == "" {
		poiType = "unknown"
	}

	return domain.PointOfInterest{
		ID:          strconv.FormatInt(el.ID, 10),
		Name:        name,
		Type:        poiType,
		Coordinates: domain.Coordinates{Lat: elLat, Lng: elLng},
		Distance:    domain.Distance(originLat, originLng, elLat, elLng),
	}
}

// Overpass API response types.

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	ID     int64    `json:"id"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Center *center  `json:"center"`
	Tags   tags     `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type tags struct {
	Name    string `json:"name"`
	Amenity string `json:"amenity"`
}
