package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultUserAgent identifies the service to the OSM APIs, which require a
// meaningful User-Agent from automated clients.
const defaultUserAgent = "city-explorer/1.0 (+https://github.com/couchcryptid/city-explorer)"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Geo provider configuration.
	NominatimBaseURL string
	OverpassBaseURL  string
	GeoUserAgent     string
	GeoTimeout       time.Duration
	NearbyRadius     int // meters

	// Weather enrichment (optional).
	WeatherEnabled bool
	WeatherBaseURL string

	// Assistant configuration.
	AnthropicAPIKey    string
	AssistantEnabled   bool
	AssistantModel     string
	AssistantMaxTokens int

	// Detection-cycle journal (enabled when brokers are set).
	KafkaBrokers      []string
	KafkaJournalTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	geoTimeout, err := parseDuration("GEO_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	radius, err := parseNearbyRadius()
	if err != nil {
		return nil, err
	}

	maxTokens, err := parsePositiveInt("ASSISTANT_MAX_TOKENS", 1024)
	if err != nil {
		return nil, err
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	assistantEnabled := apiKey != ""
	if v := os.Getenv("ASSISTANT_ENABLED"); v != "" {
		assistantEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		NominatimBaseURL: envOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		OverpassBaseURL:  envOrDefault("OVERPASS_BASE_URL", "https://overpass-api.de"),
		GeoUserAgent:     envOrDefault("GEO_USER_AGENT", defaultUserAgent),
		GeoTimeout:       geoTimeout,
		NearbyRadius:     radius,

		WeatherEnabled: os.Getenv("WEATHER_ENABLED") == "true",
		WeatherBaseURL: envOrDefault("WEATHER_BASE_URL", "https://api.open-meteo.com"),

		AnthropicAPIKey:    apiKey,
		AssistantEnabled:   assistantEnabled,
		AssistantModel:     envOrDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		AssistantMaxTokens: maxTokens,

		KafkaBrokers:      parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaJournalTopic: envOrDefault("KAFKA_JOURNAL_TOPIC", "location-detections"),
	}

	if cfg.NominatimBaseURL == "" {
		return nil, errors.New("NOMINATIM_BASE_URL is required")
	}
	if cfg.OverpassBaseURL == "" {
		return nil, errors.New("OVERPASS_BASE_URL is required")
	}
	if cfg.AssistantEnabled && cfg.AnthropicAPIKey == "" {
		return nil, errors.New("ASSISTANT_ENABLED is true but ANTHROPIC_API_KEY is not set")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaJournalTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_JOURNAL_TOPIC is empty")
	}

	return cfg, nil
}

// JournalEnabled reports whether the detection-cycle journal is configured.
func (c *Config) JournalEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseNearbyRadius() (int, error) {
	radius, err := parsePositiveInt("NEARBY_RADIUS_METERS", 1000)
	if err != nil {
		return 0, err
	}
	// Overpass rejects unbounded around filters; keep queries sane.
	if radius > 50000 {
		return 0, errors.New("invalid NEARBY_RADIUS_METERS")
	}
	return radius, nil
}

func parseBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
