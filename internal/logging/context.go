// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
	processIDKey     contextKey = "process_id"
	loggerKey        contextKey = "logger"
)

// contextFields are copied onto every logger built by Ctx, in this order.
var contextFields = []contextKey{correlationIDKey, requestIDKey, processIDKey}

// GenerateCorrelationID returns a short id; the first 8 characters of a UUID.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// GenerateRequestID returns a full UUID.
func GenerateRequestID() string {
	return uuid.New().String()
}

func withValue(ctx context.Context, key contextKey, id string) context.Context {
	return context.WithValue(ctx, key, id)
}

func stringValue(ctx context.Context, key contextKey) string {
	id, _ := ctx.Value(key).(string)
	return id
}

// ContextWithCorrelationID tags ctx with a correlation id that follows one
// message from HTTP submission through the router to the dead-letter topic.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return withValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID tags ctx with a generated correlation id.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns "" when ctx carries none.
func CorrelationIDFromContext(ctx context.Context) string {
	return stringValue(ctx, correlationIDKey)
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// ContextWithProcessID tags ctx with the import process id from a message
// header, so every event of one import run can be grepped together.
func ContextWithProcessID(ctx context.Context, id string) context.Context {
	return withValue(ctx, processIDKey, id)
}

func ProcessIDFromContext(ctx context.Context) string {
	return stringValue(ctx, processIDKey)
}

// ContextWithLogger stores a logger that Ctx uses instead of the global one.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext returns the stored logger or the global one.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return l
	}
	return Logger()
}

// CtxWith returns a logger context with the correlation, request and process
// ids of ctx already set.
func CtxWith(ctx context.Context) zerolog.Context {
	c := LoggerFromContext(ctx).With()
	for _, key := range contextFields {
		if v := stringValue(ctx, key); v != "" {
			c = c.Str(string(key), v)
		}
	}
	return c
}

// Ctx returns a logger carrying the ids stored in ctx.
//
//	logging.Ctx(ctx).Info().Str("tid", tid).Msg("Event applied")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := CtxWith(ctx).Logger()
	return &l
}

func CtxDebug(ctx context.Context) *zerolog.Event { return Ctx(ctx).Debug() }
func CtxInfo(ctx context.Context) *zerolog.Event  { return Ctx(ctx).Info() }
func CtxWarn(ctx context.Context) *zerolog.Event  { return Ctx(ctx).Warn() }
func CtxError(ctx context.Context) *zerolog.Event { return Ctx(ctx).Error() }

func CtxErr(ctx context.Context, err error) *zerolog.Event { return Ctx(ctx).Err(err) }

// WithComponent returns a child of the global logger with a component field.
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
