package domain

import "context"

// Geocoder resolves free-text addresses to coordinates.
type Geocoder interface {
	// Geocode returns the best match for an address, or (nil, nil) when the
	// provider finds nothing. A non-nil error means the provider itself
	// failed (transport, non-2xx status, malformed payload).
	Geocode(ctx context.Context, address string) (*GeocodingResult, error)
}

// PlacesFinder looks up tagged map features within a radius of a point.
type PlacesFinder interface {
	// NearbyPlaces returns at most the provider's leading matches in provider
	// order, with distances measured from the query origin.
	NearbyPlaces(ctx context.Context, lat, lng float64, radiusMeters int) ([]PointOfInterest, error)
}

// WeatherProvider reports current conditions at a point.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, lat, lng float64) (*WeatherData, error)
}
