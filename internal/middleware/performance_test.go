// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestNewPerformanceMonitor(t *testing.T) {
	tests := []struct {
		name       string
		maxMetrics int
		want       int
	}{
		{"small capacity", 10, 10},
		{"zero falls back", 0, 1000},
		{"negative falls back", -5, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := NewPerformanceMonitor(tt.maxMetrics)
			if pm.maxMetrics != tt.want {
				t.Errorf("maxMetrics = %d, want %d", pm.maxMetrics, tt.want)
			}
		})
	}
}

func TestPerformanceMonitor_SlidingWindow(t *testing.T) {
	pm := NewPerformanceMonitor(3)
	for i := int64(1); i <= 5; i++ {
		pm.RecordRequest(&RequestMetrics{Route: "/r", Method: "GET", DurationMS: i * 10})
	}

	recent := pm.GetRecentMetrics(10)
	if len(recent) != 3 {
		t.Fatalf("window holds %d metrics, want 3", len(recent))
	}
	if recent[0].DurationMS != 30 || recent[2].DurationMS != 50 {
		t.Errorf("window = %+v, want durations 30..50", recent)
	}
	if got := pm.TotalRequests("GET", "/r"); got != 5 {
		t.Errorf("TotalRequests() = %d, want 5", got)
	}
}

func TestPerformanceMonitor_GetStats(t *testing.T) {
	pm := NewPerformanceMonitor(100)
	for _, d := range []int64{10, 20, 30, 40, 100} {
		pm.RecordRequest(&RequestMetrics{Route: "/a", Method: "GET", DurationMS: d, StatusCode: 200})
	}
	pm.RecordRequest(&RequestMetrics{Route: "/b", Method: "POST", DurationMS: 5, StatusCode: 500})

	stats := pm.GetStats()
	if len(stats) != 2 {
		t.Fatalf("GetStats() returned %d endpoints, want 2", len(stats))
	}

	a := stats[0]
	if a.Endpoint != "GET /a" || a.RequestCount != 5 {
		t.Errorf("busiest endpoint = %+v", a)
	}
	if a.MinDuration != 10 || a.MaxDuration != 100 || a.P50Duration != 30 {
		t.Errorf("durations min=%d max=%d p50=%d", a.MinDuration, a.MaxDuration, a.P50Duration)
	}
	if a.AvgDuration != 40 {
		t.Errorf("AvgDuration = %v, want 40", a.AvgDuration)
	}
	if stats[1].ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", stats[1].ErrorCount)
	}
}

func TestPerformanceMonitor_MiddlewareUsesRoutePattern(t *testing.T) {
	pm := NewPerformanceMonitor(10)
	pm.SetSlowThreshold(time.Nanosecond)

	r := chi.NewRouter()
	r.Use(pm.Middleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/items/1", "/items/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := pm.TotalRequests(http.MethodGet, "/items/{id}"); got != 2 {
		t.Errorf("TotalRequests(/items/{id}) = %d, want 2", got)
	}
	recent := pm.GetRecentMetrics(1)
	if recent[0].StatusCode != http.StatusTeapot {
		t.Errorf("StatusCode = %d, want 418", recent[0].StatusCode)
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []int64
		p      float64
		want   int64
	}{
		{"empty", nil, 0.5, 0},
		{"single", []int64{7}, 0.99, 7},
		{"median", []int64{1, 2, 3, 4, 5}, 0.5, 3},
		{"p99", []int64{1, 2, 3, 4, 5}, 0.99, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentile(tt.sorted, tt.p); got != tt.want {
				t.Errorf("percentile() = %d, want %d", got, tt.want)
			}
		})
	}
}
