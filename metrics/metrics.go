package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AI DJ 会话相关指标
var (
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aidj_sessions_total",
			Help: "Total number of AI DJ sessions built, by source tier",
		},
		[]string{"source"}, // ml-service, db-popular, db-personalized
	)

	SessionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aidj_session_failures_total",
			Help: "Total number of AI DJ session builds that failed",
		},
	)

	SessionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aidj_session_duration_seconds",
			Help:    "Duration of AI DJ session builds in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	SessionTracks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aidj_session_tracks",
			Help:    "Number of tracks returned per AI DJ session",
			Buckets: []float64{0, 1, 5, 10, 25, 50},
		},
	)

	// Recommender Metrics
	RecommenderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aidj_recommender_requests_total",
			Help: "Total number of recommender calls, by outcome",
		},
		[]string{"outcome"}, // ok, empty, timeout, aborted, transport_error, bad_status, malformed, circuit_open
	)

	RecommenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aidj_recommender_duration_seconds",
			Help:    "Duration of recommender calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	RecommenderCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aidj_recommender_cache_total",
			Help: "Recommender response cache lookups, by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	ResolverLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aidj_resolver_lookups_total",
			Help: "Catalog lookups made while resolving recommendation candidates",
		},
		[]string{"result"}, // hit, miss, skipped
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)
