// Command resolve runs one detection cycle from the command line: it geocodes
// the given address, fetches nearby places (and weather when enabled), and
// prints the resulting location record as JSON.
//
// Usage:
//
//	go run ./cmd/resolve -address "Empire State Building, New York"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/city-explorer/internal/adapter/nominatim"
	"github.com/couchcryptid/city-explorer/internal/adapter/openmeteo"
	"github.com/couchcryptid/city-explorer/internal/adapter/overpass"
	"github.com/couchcryptid/city-explorer/internal/config"
	"github.com/couchcryptid/city-explorer/internal/domain"
	"github.com/couchcryptid/city-explorer/internal/observability"
	"github.com/couchcryptid/city-explorer/internal/pipeline"
	"github.com/couchcryptid/city-explorer/internal/state"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	address := flag.String("address", "", "address or place to resolve")
	timeout := flag.Duration("timeout", 30*time.Second, "overall resolution timeout")
	flag.Parse()

	if *address == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -address")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetricsForTesting()

	geocoder := nominatim.NewClient(cfg.NominatimBaseURL, cfg.GeoUserAgent, cfg.GeoTimeout, metrics, logger)
	places := overpass.NewClient(cfg.OverpassBaseURL, cfg.GeoUserAgent, cfg.GeoTimeout, metrics, logger)

	var weather domain.WeatherProvider
	if cfg.WeatherEnabled {
		weather = openmeteo.NewClient(cfg.WeatherBaseURL, cfg.GeoTimeout, metrics, logger)
	}

	resolver := pipeline.NewResolver(geocoder, places, weather, state.New(), nil, cfg.NearbyRadius, logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	info := resolver.RunDetectionCycle(ctx, *address)
	if info == nil {
		return fmt.Errorf("address not found: %s", *address)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
