// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestPrometheusMetrics(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/things/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/42", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRoutePattern(t *testing.T) {
	t.Run("unmatched without chi context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/raw/path", nil)
		if got := routePattern(req); got != "unmatched" {
			t.Errorf("routePattern() = %q, want unmatched", got)
		}
	})

	t.Run("chi pattern", func(t *testing.T) {
		var got string
		r := chi.NewRouter()
		r.Get("/a/{b}", func(_ http.ResponseWriter, req *http.Request) {
			got = routePattern(req)
		})
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/a/x", nil))
		if got != "/a/{b}" {
			t.Errorf("routePattern() = %q, want /a/{b}", got)
		}
	})
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, statusCode: http.StatusOK}
	sr.WriteHeader(http.StatusAccepted)
	if sr.statusCode != http.StatusAccepted || rec.Code != http.StatusAccepted {
		t.Errorf("statusCode = %d, recorder = %d", sr.statusCode, rec.Code)
	}
	if sr.Unwrap() != rec {
		t.Error("Unwrap() should return the wrapped writer")
	}
}
