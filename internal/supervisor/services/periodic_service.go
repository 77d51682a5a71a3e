// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package services

import (
	"context"
	"time"

	"github.com/tomtom215/chronicle/internal/logging"
)

// PeriodicService runs task every interval until canceled. A failing task
// is logged and retried at the next tick; it never crashes the service.
type PeriodicService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
}

// NewPeriodicService creates the service. interval defaults to 5 minutes.
func NewPeriodicService(name string, interval time.Duration, task func(ctx context.Context) error) *PeriodicService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &PeriodicService{name: name, interval: interval, task: task}
}

// NewBadgerGCService runs value log GC on the entity store.
func NewBadgerGCService(gc func() error, interval time.Duration) *PeriodicService {
	return NewPeriodicService("badger-gc", interval, func(context.Context) error {
		return gc()
	})
}

// Serve implements suture.Service.
func (s *PeriodicService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.task(ctx); err != nil {
				logging.Warn().Err(err).Str("service", s.name).Msg("Periodic task failed")
			}
		}
	}
}

// String implements fmt.Stringer for logging.
func (s *PeriodicService) String() string {
	return s.name
}
