// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGeneratedIDs(t *testing.T) {
	if got := GenerateCorrelationID(); len(got) != 8 {
		t.Errorf("correlation id %q has length %d, want 8", got, len(got))
	}
	if a, b := GenerateRequestID(), GenerateRequestID(); a == b || len(a) != 36 {
		t.Errorf("request ids %q %q", a, b)
	}
}

func TestContextIDs(t *testing.T) {
	tests := []struct {
		name string
		set  func(context.Context, string) context.Context
		get  func(context.Context) string
	}{
		{"correlation", ContextWithCorrelationID, CorrelationIDFromContext},
		{"request", ContextWithRequestID, RequestIDFromContext},
		{"process", ContextWithProcessID, ProcessIDFromContext},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.get(context.Background()); got != "" {
				t.Errorf("empty context returned %q", got)
			}
			ctx := tt.set(context.Background(), "abc")
			if got := tt.get(ctx); got != "abc" {
				t.Errorf("got %q, want abc", got)
			}
		})
	}

	if CorrelationIDFromContext(ContextWithNewCorrelationID(context.Background())) == "" {
		t.Error("ContextWithNewCorrelationID did not set an id")
	}
}

func TestCtx_AddsFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCorrelationID(ctx, "corr1234")
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithProcessID(ctx, "import-42")

	CtxInfo(ctx).Msg("applied")
	CtxErr(ctx, errors.New("boom")).Msg("failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	m := decodeLine(t, lines[0])
	for k, want := range map[string]string{
		"correlation_id": "corr1234",
		"request_id":     "req-1",
		"process_id":     "import-42",
	} {
		if m[k] != want {
			t.Errorf("%s = %v, want %s", k, m[k], want)
		}
	}
	if m := decodeLine(t, lines[1]); m["error"] != "boom" {
		t.Errorf("error = %v", m["error"])
	}
}

func TestCtx_OmitsMissingFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))

	Ctx(ctx).Info().Msg("bare")

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	for _, k := range []string{"correlation_id", "request_id", "process_id"} {
		if _, ok := m[k]; ok {
			t.Errorf("unexpected field %s", k)
		}
	}
}

func TestWithComponent(t *testing.T) {
	buf := capture(t, Config{Level: "info"})

	l := WithComponent("router")
	l.Info().Msg("started")

	if m := decodeLine(t, strings.TrimSpace(buf.String())); m["component"] != "router" {
		t.Errorf("component = %v", m["component"])
	}
}
