// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/chronicle/internal/logging"
)

// MessageRouter is the lifecycle of *eventprocessor.Router. A router runs
// once; a restart needs a new one.
type MessageRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// RouterFactory builds a router with its handlers registered.
type RouterFactory func() (MessageRouter, error)

// RouterService runs the import router under supervision, building a new
// router on every start so a crashed router is replaced, not reused.
type RouterService struct {
	factory RouterFactory
	name    string
}

// NewRouterService creates the service. name defaults to "message-router".
func NewRouterService(factory RouterFactory, name string) *RouterService {
	if name == "" {
		name = "message-router"
	}
	return &RouterService{factory: factory, name: name}
}

// Serve implements suture.Service.
func (s *RouterService) Serve(ctx context.Context) error {
	if s.factory == nil {
		return errors.New("router factory is nil")
	}
	router, err := s.factory()
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}

	runErr := router.Run(ctx)
	if err := router.Close(); err != nil {
		logging.Warn().Err(err).Str("service", s.name).Msg("Router close failed")
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runErr != nil {
		return fmt.Errorf("router stopped: %w", runErr)
	}
	// Run returning without cancellation means the router was closed
	// underneath us; report it so the supervisor restarts.
	return errors.New("router stopped unexpectedly")
}

// String implements fmt.Stringer for logging.
func (s *RouterService) String() string {
	return s.name
}
