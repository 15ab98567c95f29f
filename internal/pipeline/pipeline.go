// Package pipeline orchestrates the location-resolution flow: a raw address
// mention is geocoded into a DetectedAddress, published to the shared state,
// enriched with nearby places (and optionally weather), and published again
// as a whole record.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/city-explorer/internal/domain"
	"github.com/couchcryptid/city-explorer/internal/observability"
	"github.com/couchcryptid/city-explorer/internal/state"
	"github.com/google/uuid"
)

// Journal records completed detection cycles. Best-effort; failures are
// logged and never fail the cycle.
type Journal interface {
	Record(ctx context.Context, info domain.LocationInfo) error
}

// Resolver is the Location Resolution Pipeline. All upstream failures are
// absorbed here: callers see nil ("no location change") or an empty place
// list, never an error from a geo provider.
type Resolver struct {
	geocoder domain.Geocoder
	places   domain.PlacesFinder
	weather  domain.WeatherProvider // nil disables weather enrichment
	store    *state.Store
	journal  Journal // nil disables the journal
	logger   *slog.Logger
	metrics  *observability.Metrics
	radius   int
}

// NewResolver wires the pipeline. weather and journal may be nil.
func NewResolver(
	geocoder domain.Geocoder,
	places domain.PlacesFinder,
	weather domain.WeatherProvider,
	store *state.Store,
	journal Journal,
	radius int,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		places:   places,
		weather:  weather,
		store:    store,
		journal:  journal,
		logger:   logger,
		metrics:  metrics,
		radius:   radius,
	}
}

// CheckReadiness reports whether the pipeline can resolve addresses.
func (r *Resolver) CheckReadiness(_ context.Context) error {
	if r.geocoder == nil {
		return errors.New("no geocoder configured")
	}
	return nil
}

// DetectAddress geocodes a raw address mention. Returns nil when the address
// cannot be resolved, for any reason; "doesn't exist" and "service
// unreachable" are deliberately indistinguishable to the caller.
func (r *Resolver) DetectAddress(ctx context.Context, rawText string) *domain.DetectedAddress {
	result, err := r.geocoder.Geocode(ctx, rawText)
	if err != nil {
		r.logger.Warn("geocoding failed", "address", rawText, "error", err)
		return nil
	}
	if result == nil {
		r.logger.Debug("address not found", "address", rawText)
		return nil
	}

	return &domain.DetectedAddress{
		ID:          uuid.NewString(),
		Text:        rawText,
		Coordinates: domain.Coordinates{Lat: result.Lat, Lng: result.Lng},
		Formatted:   result.Formatted,
		City:        result.City,
		Country:     result.Country,
		PostalCode:  result.PostalCode,
		State:       result.State,
		DetectedAt:  domain.Now(),
	}
}

// ResolveLocationInfo enriches a detected address with nearby places and
// optional weather. Structurally always succeeds: a failed Overpass call
// yields an empty place list, a failed weather call yields no weather.
func (r *Resolver) ResolveLocationInfo(ctx context.Context, address domain.DetectedAddress) domain.LocationInfo {
	places, err := r.places.NearbyPlaces(ctx, address.Coordinates.Lat, address.Coordinates.Lng, r.radius)
	if err != nil {
		r.logger.Warn("nearby places lookup failed",
			"address_id", address.ID,
			"lat", address.Coordinates.Lat,
			"lng", address.Coordinates.Lng,
			"error", err,
		)
		places = nil
	}
	if places == nil {
		places = []domain.PointOfInterest{}
	}

	info := domain.LocationInfo{
		Address:      address,
		NearbyPlaces: places,
	}

	if r.weather != nil {
		weather, err := r.weather.CurrentWeather(ctx, address.Coordinates.Lat, address.Coordinates.Lng)
		if err != nil {
			r.logger.Warn("weather lookup failed", "address_id", address.ID, "error", err)
		} else {
			info.Weather = weather
		}
	}

	return info
}

// RunDetectionCycle drives one full cycle against the shared state:
// Detecting (loading set) → Detected (address-only record) → Enriched (whole
// record). A detection failure returns nil and leaves the previous state
// untouched; an enrichment failure never regresses the address already
// published. Superseded cycles are dropped by the store's sequence guard.
func (r *Resolver) RunDetectionCycle(ctx context.Context, rawText string) *domain.LocationInfo {
	start := time.Now()
	seq := r.store.BeginCycle()

	address := r.DetectAddress(ctx, rawText)
	if address == nil {
		r.store.EndCycle(seq)
		r.metrics.DetectionCycles.WithLabelValues("not_found").Inc()
		return nil
	}

	if !r.store.SetLocation(seq, *address) {
		r.logger.Debug("detection superseded", "address_id", address.ID)
		r.metrics.DetectionCycles.WithLabelValues("superseded").Inc()
		return nil
	}

	info := r.ResolveLocationInfo(ctx, *address)

	if !r.store.UpdateLocationInfo(seq, info) {
		r.logger.Debug("enrichment superseded", "address_id", address.ID)
		r.metrics.DetectionCycles.WithLabelValues("superseded").Inc()
		return nil
	}

	r.metrics.DetectionCycles.WithLabelValues("enriched").Inc()
	r.metrics.CycleDuration.Observe(time.Since(start).Seconds())

	if r.journal != nil {
		if err := r.journal.Record(ctx, info); err != nil {
			r.logger.Warn("journal publish failed", "address_id", address.ID, "error", err)
			r.metrics.JournalErrors.Inc()
		} else {
			r.metrics.JournalRecords.Inc()
		}
	}

	return &info
}
