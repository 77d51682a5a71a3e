// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// EventFields identifies a mutation event in log output.
type EventFields struct {
	Catalogue  string
	Collection string
	TID        string
	Action     string
	Version    string
	// EventID is zero until the event has been assigned an ID.
	EventID int64
}

// EventLogger provides specialized logging for the event pipeline.
// Every domain method writes the catalogue, collection and entity fields
// so log lines for a single entity can be correlated.
type EventLogger struct {
	logger zerolog.Logger
}

// NewEventLogger creates a logger configured for event processing.
func NewEventLogger() *EventLogger {
	return &EventLogger{
		logger: With().Str("component", "eventprocessor").Logger(),
	}
}

// NewEventLoggerWithLogger creates an EventLogger with a custom logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value (copy-on-write semantics)
func NewEventLoggerWithLogger(logger zerolog.Logger) *EventLogger {
	return &EventLogger{
		logger: logger.With().Str("component", "eventprocessor").Logger(),
	}
}

// WithFields returns a new EventLogger with additional default fields.
func (e *EventLogger) WithFields(fields map[string]interface{}) *EventLogger {
	ctx := e.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &EventLogger{logger: ctx.Logger()}
}

// Debug logs a debug message.
func (e *EventLogger) Debug(msg string, fields ...interface{}) {
	addFieldPairs(e.logger.Debug(), fields).Msg(msg)
}

// Info logs an info message.
func (e *EventLogger) Info(msg string, fields ...interface{}) {
	addFieldPairs(e.logger.Info(), fields).Msg(msg)
}

// Warn logs a warning message.
func (e *EventLogger) Warn(msg string, fields ...interface{}) {
	addFieldPairs(e.logger.Warn(), fields).Msg(msg)
}

// Error logs an error message.
func (e *EventLogger) Error(msg string, fields ...interface{}) {
	addFieldPairs(e.logger.Error(), fields).Msg(msg)
}

// loggerWithContext returns a logger with context fields added.
func (e *EventLogger) loggerWithContext(ctx context.Context) zerolog.Logger {
	logCtx := e.logger.With()

	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		logCtx = logCtx.Str("correlation_id", correlationID)
	}
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		logCtx = logCtx.Str("request_id", requestID)
	}
	if processID := ProcessIDFromContext(ctx); processID != "" {
		logCtx = logCtx.Str("process_id", processID)
	}

	return logCtx.Logger()
}

func (f EventFields) apply(ev *zerolog.Event) *zerolog.Event {
	ev = ev.Str("catalogue", f.Catalogue).
		Str("collection", f.Collection)
	if f.TID != "" {
		ev = ev.Str("tid", f.TID)
	}
	if f.Action != "" {
		ev = ev.Str("action", f.Action)
	}
	if f.Version != "" {
		ev = ev.Str("version", f.Version)
	}
	if f.EventID != 0 {
		ev = ev.Int64("event_id", f.EventID)
	}
	return ev
}

// ============================================================
// Domain-Specific Event Logging Methods
// ============================================================

// LogEventReceived logs a mutation event taken off the transport.
func (e *EventLogger) LogEventReceived(ctx context.Context, f EventFields) {
	l := e.loggerWithContext(ctx)
	f.apply(l.Debug()).Msg("event received")
}

// LogMigrated logs an event whose version was upgraded before applying.
func (e *EventLogger) LogMigrated(ctx context.Context, f EventFields, from, to string) {
	l := e.loggerWithContext(ctx)
	f.apply(l.Debug()).
		Str("from_version", from).
		Str("to_version", to).
		Msg("event migrated")
}

// LogEventApplied logs an event that was applied and persisted.
func (e *EventLogger) LogEventApplied(ctx context.Context, f EventFields, duration time.Duration) {
	l := e.loggerWithContext(ctx)
	f.apply(l.Info()).
		Dur("duration", duration).
		Msg("event applied")
}

// LogEventSkipped logs an event that was intentionally not applied,
// for example a replay of an event the entity has already seen.
func (e *EventLogger) LogEventSkipped(ctx context.Context, f EventFields, reason string) {
	l := e.loggerWithContext(ctx)
	f.apply(l.Debug()).
		Str("reason", reason).
		Msg("event skipped")
}

// LogEventFailed logs when event processing fails.
func (e *EventLogger) LogEventFailed(ctx context.Context, f EventFields, err error) {
	l := e.loggerWithContext(ctx)
	f.apply(l.Error()).
		Err(err).
		Msg("event processing failed")
}

// LogDuplicate logs when a duplicate message is detected.
func (e *EventLogger) LogDuplicate(ctx context.Context, messageID string) {
	l := e.loggerWithContext(ctx)
	l.Debug().Str("message_id", messageID).Msg("duplicate message skipped")
}

// LogDLQEntry logs when a message is sent to the dead letter topic.
func (e *EventLogger) LogDLQEntry(ctx context.Context, messageID, category string, err error) {
	l := e.loggerWithContext(ctx)
	l.Warn().
		Str("message_id", messageID).
		Str("error_category", category).
		Err(err).
		Msg("message sent to dead letter topic")
}

// LogEventPublished logs when a message is published.
func (e *EventLogger) LogEventPublished(ctx context.Context, messageID, topic string) {
	l := e.loggerWithContext(ctx)
	l.Debug().
		Str("message_id", messageID).
		Str("topic", topic).
		Msg("message published")
}

// LogSubscriptionStarted logs when a subscription is started.
func (e *EventLogger) LogSubscriptionStarted(topic string, subscribers int) {
	e.Info("subscription started",
		"topic", topic,
		"subscribers", subscribers,
	)
}

// LogRouterStarted logs when the Watermill router starts.
func (e *EventLogger) LogRouterStarted() {
	e.Info("router started")
}

// LogRouterStopped logs when the Watermill router stops.
func (e *EventLogger) LogRouterStopped() {
	e.Info("router stopped")
}

// addFieldPairs adds key-value pairs to a zerolog event.
func addFieldPairs(e *zerolog.Event, fields []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, fields[i+1])
	}
	return e
}
