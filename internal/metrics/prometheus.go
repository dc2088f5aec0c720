package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by route and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration tracks HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// CommandsTotal counts routed chat commands by kind and outcome.
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of chat commands handled",
		},
		[]string{"command", "outcome"},
	)

	// TelemetryFetches counts ThingSpeak feed requests by result.
	TelemetryFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_fetches_total",
			Help: "Total number of ThingSpeak feed fetches",
		},
		[]string{"status"},
	)

	// ChartRenderLatency tracks the full chart pipeline duration.
	ChartRenderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chart_render_seconds",
			Help:    "Chart pipeline latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"label"},
	)

	// LLMRequests counts completion calls by status.
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of LLM completion calls",
		},
		[]string{"status"},
	)

	// ActiveSessions is the number of live conversation records.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Number of conversation transcripts held",
		},
	)

	// ArtifactsRemoved counts chart files deleted by the janitor.
	ArtifactsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chart_artifacts_removed_total",
			Help: "Total number of expired chart files removed",
		},
	)

	// SessionOperations counts session store calls.
	SessionOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_operations_total",
			Help: "Total number of session store operations",
		},
		[]string{"operation", "status"},
	)
)
