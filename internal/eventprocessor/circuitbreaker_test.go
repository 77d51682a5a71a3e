// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package eventprocessor

import (
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

func TestNewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test-breaker"))

	if cb.Name() != "test-breaker" {
		t.Errorf("Expected name=test-breaker, got %s", cb.Name())
	}
	if state := CircuitBreakerState(cb); state != "closed" {
		t.Errorf("Expected initial state=closed, got %s", state)
	}
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "open-test",
		MaxRequests:      1,
		Interval:         time.Second,
		Timeout:          time.Second,
		FailureThreshold: 2,
	})

	testErr := errors.New("fail")
	for i := 0; i < 2; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, testErr })
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("Expected state=open, got %s", cb.State())
	}
	_, err := cb.Execute(func() (interface{}, error) { return "unreachable", nil })
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected ErrOpenState, got %v", err)
	}
}

func TestCircuitBreaker_DefaultThreshold(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("zero-threshold")
	cfg.FailureThreshold = 0
	cb := NewCircuitBreaker(cfg)

	for i := 0; i < 4; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, errors.New("fail") })
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("four failures should not trip the default threshold of five")
	}
	_, _ = cb.Execute(func() (interface{}, error) { return nil, errors.New("fail") })
	if cb.State() != gobreaker.StateOpen {
		t.Errorf("fifth failure should open the breaker, got %s", cb.State())
	}
}
