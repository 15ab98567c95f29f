package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/city-explorer/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/city-explorer/internal/adapter/kafka"
	"github.com/couchcryptid/city-explorer/internal/adapter/nominatim"
	"github.com/couchcryptid/city-explorer/internal/adapter/openmeteo"
	"github.com/couchcryptid/city-explorer/internal/adapter/overpass"
	"github.com/couchcryptid/city-explorer/internal/assistant"
	"github.com/couchcryptid/city-explorer/internal/config"
	"github.com/couchcryptid/city-explorer/internal/domain"
	"github.com/couchcryptid/city-explorer/internal/observability"
	"github.com/couchcryptid/city-explorer/internal/pipeline"
	"github.com/couchcryptid/city-explorer/internal/state"
)

func main() {
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	geocoder := nominatim.NewClient(cfg.NominatimBaseURL, cfg.GeoUserAgent, cfg.GeoTimeout, metrics, logger)
	places := overpass.NewClient(cfg.OverpassBaseURL, cfg.GeoUserAgent, cfg.GeoTimeout, metrics, logger)

	var weather domain.WeatherProvider
	if cfg.WeatherEnabled {
		weather = openmeteo.NewClient(cfg.WeatherBaseURL, cfg.GeoTimeout, metrics, logger)
		logger.Info("weather enrichment enabled")
	} else {
		logger.Info("weather enrichment disabled")
	}

	store := state.New()

	var journal pipeline.Journal
	var journalCloser *kafkaadapter.Journal
	if cfg.JournalEnabled() {
		journalCloser = kafkaadapter.NewJournal(cfg, logger)
		journal = journalCloser
		logger.Info("detection journal enabled", "topic", cfg.KafkaJournalTopic)
	} else {
		logger.Info("detection journal disabled")
	}

	resolver := pipeline.NewResolver(geocoder, places, weather, store, journal, cfg.NearbyRadius, logger, metrics)

	// The assistant is feature-flagged via ANTHROPIC_API_KEY / ASSISTANT_ENABLED.
	var session httpadapter.ChatSession
	if cfg.AssistantEnabled {
		session = assistant.New(cfg, resolver, logger, metrics).NewSession()
		metrics.AssistantEnabled.Set(1)
		logger.Info("assistant enabled", "model", cfg.AssistantModel)
	} else {
		metrics.AssistantEnabled.Set(0)
		logger.Info("assistant disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, session, resolver, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if journalCloser != nil {
		if err := journalCloser.Close(); err != nil {
			logger.Error("journal close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
