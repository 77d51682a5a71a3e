// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/chronicle/internal/entity"
	"github.com/tomtom215/chronicle/internal/metrics"
)

// Store errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrClosed        = errors.New("store closed")
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Supported drivers.
const (
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// EntityStore loads and saves entity records and hands out event ids.
type EntityStore interface {
	// Get returns the record for key, or ErrNotFound.
	Get(ctx context.Context, key entity.Key) (*entity.Record, error)
	// Put inserts or replaces a record.
	Put(ctx context.Context, rec *entity.Record) error
	// NextEventID returns a new, strictly increasing event id.
	NextEventID(ctx context.Context) (int64, error)
	// Driver names the backend for logs and metrics.
	Driver() string
	Close() error
}

// Config selects and tunes a driver.
type Config struct {
	Driver   string
	Badger   BadgerConfig
	Postgres PostgresConfig
	Breaker  BreakerConfig
}

// Open creates the configured store wrapped in a circuit breaker.
func Open(ctx context.Context, cfg Config, codec *entity.Codec) (EntityStore, error) {
	var (
		s   EntityStore
		err error
	)
	switch cfg.Driver {
	case DriverBadger, "":
		s, err = OpenBadger(cfg.Badger, codec)
	case DriverPostgres:
		s, err = OpenPostgres(ctx, cfg.Postgres, codec)
	case DriverMemory:
		s = NewMemoryStore(codec)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Breaker.Enabled {
		s = NewBreakerStore(s, cfg.Breaker)
	}
	return s, nil
}

func observe(driver, op string, start time.Time) {
	metrics.RecordStoreOperation(op, driver, time.Since(start))
}
