// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/chronicle/internal/entity"
)

var errBackend = errors.New("backend down")

// flakyStore fails Put while broken is set.
type flakyStore struct {
	*MemoryStore
	broken bool
	puts   int
}

func (f *flakyStore) Put(ctx context.Context, rec *entity.Record) error {
	f.puts++
	if f.broken {
		return errBackend
	}
	return f.MemoryStore.Put(ctx, rec)
}

func TestBreakerStore_TripsOnFailures(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(testCodec(t)), broken: true}
	b := NewBreakerStore(inner, BreakerConfig{FailureThreshold: 3, Timeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := b.Put(ctx, testRecord("1")); !errors.Is(err, errBackend) {
			t.Fatalf("Put() #%d error = %v, want errBackend", i, err)
		}
	}
	if b.State() != "open" {
		t.Fatalf("State() = %s, want open", b.State())
	}
	if err := b.Put(ctx, testRecord("1")); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Put() while open error = %v, want ErrOpenState", err)
	}
	if inner.puts != 3 {
		t.Errorf("inner Put called %d times, want 3", inner.puts)
	}
}

func TestBreakerStore_NotFoundIsHealthy(t *testing.T) {
	b := NewBreakerStore(NewMemoryStore(testCodec(t)), BreakerConfig{FailureThreshold: 1})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := b.Get(ctx, testRecord("x").Key); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get() error = %v, want ErrNotFound", err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("State() = %s, want closed", b.State())
	}
	if _, err := b.NextEventID(ctx); err != nil {
		t.Errorf("NextEventID() error = %v", err)
	}
}
