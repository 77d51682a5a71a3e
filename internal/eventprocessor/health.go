// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package eventprocessor

import (
	"context"
	"sort"
	"sync"
	"time"
)

// HealthStatusType represents the overall health status.
type HealthStatusType string

const (
	// HealthStatusHealthy indicates all components are functioning normally.
	HealthStatusHealthy HealthStatusType = "healthy"
	// HealthStatusDegraded indicates some components are experiencing issues but still operational.
	HealthStatusDegraded HealthStatusType = "degraded"
	// HealthStatusUnhealthy indicates critical components are failing.
	HealthStatusUnhealthy HealthStatusType = "unhealthy"
)

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Healthy   bool                   `json:"healthy"`
	Degraded  bool                   `json:"degraded,omitempty"`
	Name      string                 `json:"name"`
	Message   string                 `json:"message,omitempty"`
	Error     string                 `json:"error,omitempty"`
	LastCheck time.Time              `json:"last_check"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// HealthCheckable is implemented by components that support health checking.
type HealthCheckable interface {
	HealthCheck(ctx context.Context) ComponentHealth
}

// HealthCheckFunc adapts a function to HealthCheckable.
type HealthCheckFunc func(ctx context.Context) ComponentHealth

// HealthCheck implements HealthCheckable.
func (f HealthCheckFunc) HealthCheck(ctx context.Context) ComponentHealth {
	return f(ctx)
}

// OverallHealth represents the aggregated health status of all components.
type OverallHealth struct {
	Healthy    bool                       `json:"healthy"`
	Status     HealthStatusType           `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthChecker manages health checks for multiple components.
type HealthChecker struct {
	timeout    time.Duration
	mu         sync.RWMutex
	components map[string]registered
}

type registered struct {
	check    HealthCheckable
	optional bool
}

// NewHealthChecker creates a health checker; each check gets timeout.
func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthChecker{
		timeout:    timeout,
		components: make(map[string]registered),
	}
}

// RegisterComponent registers a component the service cannot run without.
// When it fails the overall status is unhealthy.
func (h *HealthChecker) RegisterComponent(name string, component HealthCheckable) {
	h.register(name, component, false)
}

// RegisterOptional registers a component whose failure only degrades the
// service, such as the archive: events still apply without it.
func (h *HealthChecker) RegisterOptional(name string, component HealthCheckable) {
	h.register(name, component, true)
}

func (h *HealthChecker) register(name string, c HealthCheckable, optional bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[name] = registered{check: c, optional: optional}
}

// Names returns the registered component names, sorted.
func (h *HealthChecker) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.components))
	for n := range h.components {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CheckAll runs every registered check concurrently and folds the results:
// any failing required component makes the service unhealthy; a failing
// optional one or any degraded component makes it degraded.
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	h.mu.RLock()
	comps := make(map[string]registered, len(h.components))
	for name, c := range h.components {
		comps[name] = c
	}
	h.mu.RUnlock()

	results := make(chan ComponentHealth, len(comps))
	for name, c := range comps {
		go func(name string, c HealthCheckable) {
			results <- h.check(ctx, name, c)
		}(name, c.check)
	}

	overall := OverallHealth{
		Healthy:    true,
		Status:     HealthStatusHealthy,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth, len(comps)),
	}
	degraded := false
	for range comps {
		r := <-results
		overall.Components[r.Name] = r
		switch {
		case !r.Healthy && !comps[r.Name].optional:
			overall.Healthy = false
		case !r.Healthy, r.Degraded:
			degraded = true
		}
	}
	switch {
	case !overall.Healthy:
		overall.Status = HealthStatusUnhealthy
	case degraded:
		overall.Status = HealthStatusDegraded
	}
	return overall
}

func (h *HealthChecker) check(ctx context.Context, name string, comp HealthCheckable) ComponentHealth {
	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resultCh := make(chan ComponentHealth, 1)
	go func() {
		result := comp.HealthCheck(checkCtx)
		result.Name = name
		result.LastCheck = time.Now()
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		return result
	case <-checkCtx.Done():
		return ComponentHealth{
			Name:      name,
			Error:     "health check timeout",
			LastCheck: time.Now(),
		}
	}
}
