// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

// Package eventprocessor imports mutation event messages: it decodes them,
// migrates every event to the live model version, enforces per-entity
// ordering and applies the events to the entity store.
//
// # Message Flow
//
//	┌─────────────┐      ┌──────────────────┐
//	│  HTTP API   │      │ External producer│
//	│ POST /msgs  │      │   (NATS client)  │
//	└──────┬──────┘      └────────┬─────────┘
//	       └───────────┬──────────┘
//	                   ▼
//	         ┌───────────────────┐
//	         │  NATS JetStream   │  chronicle.import
//	         │  (or gochannel)   │
//	         └─────────┬─────────┘
//	                   ▼
//	         ┌───────────────────┐      ┌───────────────────────┐
//	         │ Router + Import-  │─────▶│ chronicle.deadletter  │
//	         │ Handler           │      │ chronicle.poison      │
//	         └─────────┬─────────┘      └───────────────────────┘
//	                   ▼
//	         ┌───────────────────┐
//	         │    Processor      │  migrate → order check → apply
//	         └────┬─────────┬────┘
//	              ▼         ▼
//	       ┌──────────┐ ┌──────────┐
//	       │  Store   │ │ Archive  │
//	       └──────────┘ └──────────┘
//
// # Ordering
//
// Every entity carries _last_event, the id of the last event applied to it.
// Each incoming event names the id it expects there. A mismatch is an
// ErrOutOfOrder failure: retryable, since a redelivery after the missing
// predecessor arrives succeeds. Only an ADD may target a missing entity.
//
// # Failure Handling
//
// Failures are per event. A failing event is dead-lettered as a one-event
// import message carrying error, error_category and retryable metadata; the
// rest of its message still applies. The router's Retry and PoisonQueue
// middleware only see infrastructure failures, such as a dead-letter
// publish that could not be delivered.
//
// # Transports
//
// NewTransport connects to NATS (optionally starting an embedded server)
// and ensures the stream exists. With NATS disabled an in-process gochannel
// pub/sub carries messages between the API and the router, which suits
// tests and single-process deployments.
package eventprocessor
