package domain

import "time"

// GeocodingResult contains the fields a geocoding provider resolves for a
// free-text address query.
type GeocodingResult struct {
	Lat        float64
	Lng        float64
	Formatted  string // provider's canonical display string
	City       string
	Country    string
	PostalCode string
	State      string
}

// DetectedAddress is one successful address detection. Created by the
// pipeline on geocoder success and never mutated; a new detection of the same
// text supersedes it with a fresh identity.
type DetectedAddress struct {
	ID          string      `json:"id"`
	Text        string      `json:"text"` // raw user-mentioned string
	Coordinates Coordinates `json:"coordinates"`
	Formatted   string      `json:"formatted"`
	City        string      `json:"city,omitempty"`
	Country     string      `json:"country,omitempty"`
	PostalCode  string      `json:"postalCode,omitempty"`
	State       string      `json:"state,omitempty"`
	DetectedAt  time.Time   `json:"detectedAt"`
}

// PointOfInterest is a single tagged map feature near a detected address.
// The list held by a LocationInfo is replaced wholesale on each resolution.
type PointOfInterest struct {
	ID          string      `json:"id"` // provider-assigned element ID
	Name        string      `json:"name"`
	Type        string      `json:"type"` // raw category tag, e.g. "park", "cafe"
	Coordinates Coordinates `json:"coordinates"`
	Rating      *float64    `json:"rating,omitempty"`
	Distance    int         `json:"distance"` // meters from the query origin
}

// WeatherData holds current conditions at a location. Optional enrichment;
// Condition is one of the display classes sunny, cloudy, rainy, snowy.
type WeatherData struct {
	Temperature float64 `json:"temperature"` // degrees Celsius
	Condition   string  `json:"condition"`
	Humidity    int     `json:"humidity"` // percent
	WindSpeed   float64 `json:"windSpeed"`
}

// CityStats is a demographics extension slot, unpopulated for now.
type CityStats struct {
	Population int     `json:"population"`
	Area       float64 `json:"area"`
	Density    float64 `json:"density"`
}

// LocationInfo aggregates one detected address with its nearby places and
// optional enrichments. Replaced atomically in the shared state, never
// patched; a two-phase construction first publishes the address with an empty
// place list, then the whole enriched record.
type LocationInfo struct {
	Address      DetectedAddress   `json:"address"`
	NearbyPlaces []PointOfInterest `json:"nearbyPlaces"`
	Weather      *WeatherData      `json:"weather,omitempty"`
	Demographics *CityStats        `json:"demographics,omitempty"`
}

// ChatMessage is one entry of the session transcript.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
