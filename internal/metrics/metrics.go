// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the bridge:
// - Push/remove batch processing (counts, outcomes, duration)
// - Kitsu API client (request latency, errors, circuit breaker state)
// - DuckDB query performance
// - HTTP endpoint latency and throughput
// - Event bus publishing and the spill buffer

var (
	// Push Pipeline Metrics
	PushEntitiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_entities_total",
			Help: "Total number of entities processed by the push pipeline",
		},
		[]string{"kind", "outcome"}, // outcome: "created", "updated", "unchanged", "skipped", "ignored"
	)

	PushBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "push_batch_duration_seconds",
			Help:    "Duration of push batch processing in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	PushBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "push_batch_size",
			Help:    "Number of entities per push batch",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)

	RemoveEntitiesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remove_entities_total",
			Help: "Total number of entities processed by the remove pipeline",
		},
		[]string{"kind", "outcome"}, // outcome: "deleted", "not_found"
	)

	ProvisionedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provisioned_total",
			Help: "Total number of auto-provisioned project schema entries",
		},
		[]string{"schema_type"}, // "folder_type", "task_type", "status"
	)

	// Kitsu API Client Metrics
	KitsuRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kitsu_api_requests_total",
			Help: "Total number of Kitsu API requests",
		},
		[]string{"endpoint", "status"},
	)

	KitsuRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kitsu_api_request_duration_seconds",
			Help:    "Kitsu API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	KitsuRelogins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kitsu_relogins_total",
			Help: "Total number of Kitsu session re-authentications",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published to the bus",
		},
		[]string{"topic"},
	)

	EventsPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_publish_errors_total",
			Help: "Total number of failed event publishes",
		},
	)

	EventSpoolDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_spool_depth",
			Help: "Current number of events in the durable spool awaiting delivery",
		},
	)

	EventSpoolReplayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_spool_replayed_total",
			Help: "Total number of spooled events replayed to the bus",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordPushEntity records the outcome of a single entity in a push batch.
func RecordPushEntity(kind, outcome string) {
	PushEntitiesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordPushBatch records a completed push batch.
func RecordPushBatch(duration time.Duration, size int) {
	PushBatchDuration.Observe(duration.Seconds())
	PushBatchSize.Observe(float64(size))
}

// RecordRemoveEntity records the outcome of a single entity removal.
func RecordRemoveEntity(kind, outcome string) {
	RemoveEntitiesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordProvisioned records an auto-provisioned project schema entry.
func RecordProvisioned(schemaType string) {
	ProvisionedTotal.WithLabelValues(schemaType).Inc()
}

// RecordKitsuRequest records a completed Kitsu API request.
func RecordKitsuRequest(endpoint, status string, duration time.Duration) {
	KitsuRequestsTotal.WithLabelValues(endpoint, status).Inc()
	KitsuRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordDBQuery records a DuckDB query with its duration and error state.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an HTTP API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordEventPublished records a successful event publish.
func RecordEventPublished(topic string) {
	EventsPublished.WithLabelValues(topic).Inc()
}

// SetCircuitBreakerState updates the gauge for a named breaker.
// State encoding: 0=closed, 1=half-open, 2=open.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}
