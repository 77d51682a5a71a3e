// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/chronicle/internal/eventprocessor"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	eventprocessor.OverallHealth
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Health reports component health: 200 when healthy or degraded, 503 when
// a component is down.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	overall := eventprocessor.OverallHealth{
		Healthy:   true,
		Status:    eventprocessor.HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
	}
	if h.health != nil {
		overall = h.health.CheckAll(r.Context())
	}

	status := http.StatusOK
	result := "success"
	if overall.Status == eventprocessor.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
		result = "error"
	}
	respondJSON(w, r, status, &APIResponse{
		Status: result,
		Data: HealthResponse{
			OverallHealth: overall,
			UptimeSeconds: time.Since(h.startTime).Seconds(),
		},
	})
}

// HealthLive answers liveness probes without checking dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, &APIResponse{
		Status: "success",
		Data:   map[string]string{"status": "alive"},
	})
}

// EndpointStats returns per-route latency statistics.
func (h *Handler) EndpointStats(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, h.perfMon.GetStats(), time.Now())
}

// ArchiveStats returns archived event counts per catalogue:collection.
func (h *Handler) ArchiveStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.archive == nil {
		respondError(w, r, http.StatusNotFound, ErrCodeArchiveDisabled, "Event archive is disabled", nil)
		return
	}
	counts, err := h.archive.Counts(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Failed to count archived events", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, counts, start)
}
