// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event pipeline metrics
var (
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronicle_events_received_total",
			Help: "Total number of events received, by wire action",
		},
		[]string{"action"},
	)

	EventsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronicle_events_applied_total",
			Help: "Total number of events applied to entities",
		},
		[]string{"catalogue", "collection", "action"},
	)

	EventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronicle_events_failed_total",
			Help: "Total number of events that could not be applied",
		},
		[]string{"reason"}, // error category
	)

	MigrationSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronicle_migration_steps_total",
			Help: "Total number of single-version migration steps applied to events",
		},
		[]string{"catalogue", "collection"},
	)

	EventApplyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chronicle_event_apply_duration_seconds",
			Help:    "Duration of migrating, applying and persisting one event",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	MessagesDeadLettered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chronicle_messages_deadlettered_total",
			Help: "Total number of failed events published to the dead-letter topic",
		},
	)

	MessageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chronicle_message_processing_duration_seconds",
			Help:    "Duration of processing one import message",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Storage metrics
var (
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chronicle_store_operation_duration_seconds",
			Help:    "Duration of entity store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "driver"},
	)

	ArchiveQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chronicle_archive_query_duration_seconds",
			Help:    "Duration of DuckDB archive queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ArchiveQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronicle_archive_query_errors_total",
			Help: "Total number of DuckDB archive query errors",
		},
		[]string{"operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chronicle_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// Transport metrics
var (
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chronicle_nats_messages_published_total",
			Help: "Total number of messages published",
		},
	)

	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chronicle_nats_messages_consumed_total",
			Help: "Total number of messages consumed by the router",
		},
	)

	NATSMessagesDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chronicle_nats_messages_deduplicated_total",
			Help: "Total number of redelivered messages skipped by deduplication",
		},
	)

	NATSMessagesParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chronicle_nats_messages_parse_failed_total",
			Help: "Total number of messages that could not be decoded",
		},
	)
)

// API metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronicle_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chronicle_api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chronicle_api_requests_in_flight",
			Help: "Number of API requests being served",
		},
	)
)

// RecordEventReceived counts an incoming event under its wire name, so bulk
// confirms stay visible here even though they apply as CONFIRM.
func RecordEventReceived(action string) {
	EventsReceived.WithLabelValues(action).Inc()
}

// RecordEventApplied records one applied event and its processing time.
func RecordEventApplied(catalogue, collection, action string, duration time.Duration) {
	EventsApplied.WithLabelValues(catalogue, collection, action).Inc()
	EventApplyDuration.Observe(duration.Seconds())
}

// RecordEventFailed counts a failed event by error category.
func RecordEventFailed(reason string) {
	EventsFailed.WithLabelValues(reason).Inc()
}

// RecordMigrationStep counts one version step applied to an event.
func RecordMigrationStep(catalogue, collection string) {
	MigrationSteps.WithLabelValues(catalogue, collection).Inc()
}

// RecordDeadLetter counts an event published to the dead-letter topic.
func RecordDeadLetter() {
	MessagesDeadLettered.Inc()
}

// RecordMessageProcessed records the duration of one import message.
func RecordMessageProcessed(duration time.Duration) {
	MessageProcessingDuration.Observe(duration.Seconds())
}

// RecordStoreOperation records an entity store call.
func RecordStoreOperation(operation, driver string, duration time.Duration) {
	StoreOperationDuration.WithLabelValues(operation, driver).Observe(duration.Seconds())
}

// RecordArchiveQuery records a DuckDB archive query.
func RecordArchiveQuery(operation string, duration time.Duration, err error) {
	ArchiveQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		ArchiveQueryErrors.WithLabelValues(operation).Inc()
	}
}

// SetCircuitBreakerState publishes a breaker's state as a number.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordNATSPublish records a message being published
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSConsume records a message being consumed
func RecordNATSConsume() {
	NATSMessagesConsumed.Inc()
}

// RecordNATSDeduplicated records a message being skipped due to deduplication
func RecordNATSDeduplicated() {
	NATSMessagesDeduplicated.Inc()
}

// RecordNATSParseFailed records a message that failed to parse
func RecordNATSParseFailed() {
	NATSMessagesParseFailed.Inc()
}
