package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// location-resolution pipeline and the assistant adapter.
type Metrics struct {
	// Detection cycle metrics.
	DetectionCycles *prometheus.CounterVec // labels: outcome={enriched,not_found,error}
	CycleDuration   prometheus.Histogram

	// Geo provider metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,empty,error}
	GeocodeDuration prometheus.Histogram
	PlacesRequests  *prometheus.CounterVec // labels: outcome={success,empty,error}
	PlacesDuration  prometheus.Histogram
	WeatherRequests *prometheus.CounterVec // labels: outcome={success,error}

	// Assistant metrics.
	AssistantEnabled prometheus.Gauge
	ToolCalls        *prometheus.CounterVec // labels: tool, outcome={ok,error}
	StreamErrors     prometheus.Counter

	// Journal metrics.
	JournalRecords prometheus.Counter
	JournalErrors  prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus
// registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DetectionCycles,
		m.CycleDuration,
		m.GeocodeRequests,
		m.GeocodeDuration,
		m.PlacesRequests,
		m.PlacesDuration,
		m.WeatherRequests,
		m.AssistantEnabled,
		m.ToolCalls,
		m.StreamErrors,
		m.JournalRecords,
		m.JournalErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DetectionCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "city_explorer",
			Name:      "detection_cycles_total",
			Help:      "Address detection cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "city_explorer",
			Name:      "detection_cycle_duration_seconds",
			Help:      "Duration of a full detect-and-enrich cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "city_explorer",
			Name:      "geocode_requests_total",
			Help:      "Nominatim requests by outcome.",
		}, []string{"outcome"}),
		GeocodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "city_explorer",
			Name:      "geocode_duration_seconds",
			Help:      "Nominatim request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		PlacesRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "city_explorer",
			Name:      "places_requests_total",
			Help:      "Overpass requests by outcome.",
		}, []string{"outcome"}),
		PlacesDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "city_explorer",
			Name:      "places_duration_seconds",
			Help:      "Overpass request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "city_explorer",
			Name:      "weather_requests_total",
			Help:      "Open-Meteo requests by outcome.",
		}, []string{"outcome"}),
		AssistantEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "city_explorer",
			Name:      "assistant_enabled",
			Help:      "1 when the chat assistant is configured, 0 otherwise.",
		}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "city_explorer",
			Name:      "assistant_tool_calls_total",
			Help:      "Assistant tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		StreamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "city_explorer",
			Name:      "assistant_stream_errors_total",
			Help:      "Assistant streaming failures surfaced to the chat.",
		}),
		JournalRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "city_explorer",
			Name:      "journal_records_total",
			Help:      "Detection cycles published to the Kafka journal.",
		}),
		JournalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "city_explorer",
			Name:      "journal_errors_total",
			Help:      "Failed journal publishes.",
		}),
	}
}
