// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

/*
Command server runs chronicle: it imports mutation event messages, migrates
them to the live model version and applies them to the entity store.

Startup order:

 1. Configuration: Koanf v2 (defaults, config.yaml, CHRONICLE_* environment)
 2. Logging: zerolog
 3. Model and migration table
 4. Entity store (badger, postgres or memory) and optional DuckDB archive
 5. Processor
 6. Transport: NATS JetStream (optionally embedded) or in-process channel
 7. HTTP API
 8. Supervisor tree: badger GC, message router, HTTP server

SIGINT and SIGTERM cancel the tree; the transport and stores are closed
after every supervised service has stopped.
*/
package main
