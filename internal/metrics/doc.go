// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

/*
Package metrics provides Prometheus instrumentation for the event pipeline.

All collectors are registered on the default registry through promauto and
exposed by the API at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

Event pipeline:
  - chronicle_events_received_total{action}: events received, by wire name
    (BULKCONFIRM is counted as received under its own name)
  - chronicle_events_applied_total{catalogue,collection,action}: applied events,
    with BULKCONFIRM entries labelled CONFIRM
  - chronicle_events_failed_total{reason}: failed events by error category
  - chronicle_migration_steps_total{catalogue,collection}
  - chronicle_event_apply_duration_seconds
  - chronicle_message_processing_duration_seconds
  - chronicle_messages_deadlettered_total

Storage:
  - chronicle_store_operation_duration_seconds{operation,driver}
  - chronicle_archive_query_duration_seconds{operation}
  - chronicle_archive_query_errors_total{operation}
  - chronicle_circuit_breaker_state{name}

Transport:
  - chronicle_nats_messages_published_total
  - chronicle_nats_messages_consumed_total
  - chronicle_nats_messages_deduplicated_total
  - chronicle_nats_messages_parse_failed_total

HTTP:
  - chronicle_api_requests_total{method,endpoint,status}
  - chronicle_api_request_duration_seconds{method,endpoint}
  - chronicle_api_requests_in_flight

# Usage

	start := time.Now()
	// ... apply event ...
	metrics.RecordEventApplied("meetbouten", "meetbouten", "ADD", time.Since(start))

Tests read values with prometheus/testutil.
*/
package metrics
