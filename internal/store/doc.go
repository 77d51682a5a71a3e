// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

/*
Package store persists entity records between messages.

Three drivers implement EntityStore:

  - badger: embedded BadgerDB, the default. Records are stored under
    "entity:<catalogue>:<collection>:<tid>" in their canonical JSON form and
    event ids come from a Badger sequence.
  - postgres: a pgx connection pool over an "entities" table with a JSONB
    attributes column and the chronicle_event_id sequence.
  - memory: a mutex-guarded map, for tests and throwaway runs.

Every driver goes through entity.Codec, so a record read back from any store
holds validated storage values.

BreakerStore wraps a driver in a gobreaker circuit breaker so a failing
backend is failed fast instead of being retried per event.
*/
package store
