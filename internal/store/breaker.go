// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package store

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/chronicle/internal/entity"
	"github.com/tomtom215/chronicle/internal/logging"
	"github.com/tomtom215/chronicle/internal/metrics"
)

// BreakerConfig configures the circuit breaker around a store.
type BreakerConfig struct {
	Enabled          bool
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// BreakerStore fails fast while the wrapped store is unhealthy. ErrNotFound
// and context cancellation do not count as failures.
type BreakerStore struct {
	EntityStore
	cb *gobreaker.CircuitBreaker[any]
}

// NewBreakerStore wraps s.
func NewBreakerStore(s EntityStore, cfg BreakerConfig) *BreakerStore {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	name := "store-" + s.Driver()
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetCircuitBreakerState(name, int(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}
	return &BreakerStore{EntityStore: s, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State returns the breaker state name.
func (b *BreakerStore) State() string {
	return b.cb.State().String()
}

func (b *BreakerStore) Get(ctx context.Context, key entity.Key) (*entity.Record, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.EntityStore.Get(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.Record), nil
}

func (b *BreakerStore) Put(ctx context.Context, rec *entity.Record) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.EntityStore.Put(ctx, rec)
	})
	return err
}

func (b *BreakerStore) NextEventID(ctx context.Context) (int64, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.EntityStore.NextEventID(ctx)
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}
