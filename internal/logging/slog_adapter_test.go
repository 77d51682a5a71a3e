// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newSlog(buf *bytes.Buffer, level zerolog.Level) *slog.Logger {
	return slog.New(NewSlogHandlerWithLogger(NewTestLogger(buf).Level(level)))
}

func TestSlogHandler_Levels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug - 4, "trace"},
		{slog.LevelDebug, "debug"},
		{slog.LevelInfo, "info"},
		{slog.LevelWarn, "warn"},
		{slog.LevelError, "error"},
		{slog.LevelError + 4, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			prev := zerolog.GlobalLevel()
			zerolog.SetGlobalLevel(zerolog.TraceLevel)
			defer zerolog.SetGlobalLevel(prev)

			newSlog(&buf, zerolog.TraceLevel).Log(context.Background(), tt.level, "x")

			if m := decodeLine(t, strings.TrimSpace(buf.String())); m["level"] != tt.want {
				t.Errorf("level = %v, want %s", m["level"], tt.want)
			}
		})
	}
}

func TestSlogHandler_Enabled(t *testing.T) {
	h := NewSlogHandlerWithLogger(NewTestLogger(&bytes.Buffer{}).Level(zerolog.WarnLevel))
	ctx := context.Background()
	if h.Enabled(ctx, slog.LevelInfo) {
		t.Error("info should be disabled at warn")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Error("error should be enabled at warn")
	}
}

func TestSlogHandler_Attributes(t *testing.T) {
	var buf bytes.Buffer
	log := newSlog(&buf, zerolog.InfoLevel).
		With("supervisor", "chronicle").
		WithGroup("svc").
		With("name", "import-router")

	log.Info("service restarted",
		"restarts", 3,
		"healthy", true,
		"backoff", 2*time.Second,
		"err", errors.New("router stopped"),
		slog.Group("ctx", "layer", "messaging"),
	)

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	want := map[string]any{
		"supervisor":    "chronicle",
		"svc.name":      "import-router",
		"svc.restarts":  float64(3),
		"svc.healthy":   true,
		"svc.err":       "router stopped",
		"svc.ctx.layer": "messaging",
		"message":       "service restarted",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %v (%T), want %v", k, m[k], m[k], v)
		}
	}
	if _, ok := m["svc.backoff"]; !ok {
		t.Error("missing svc.backoff")
	}
}

func TestSlogHandler_EmptyGroupIsNoop(t *testing.T) {
	h := NewSlogHandlerWithLogger(NewTestLogger(&bytes.Buffer{}))
	if h.WithGroup("") != slog.Handler(h) {
		t.Error("WithGroup(\"\") should return the same handler")
	}
}
