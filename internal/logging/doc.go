// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

// Package logging is the single zerolog sink for Chronicle.
//
// main calls Init once with the logging section of the configuration; every
// other package logs through the package-level helpers:
//
//	logging.Info().Str("driver", "badger").Msg("Entity store opened")
//	logging.Err(err).Msg("Archive append failed")
//
// Request and import context travels on context.Context. The HTTP middleware
// stores a request id and a correlation id, the import handler adds the
// message's process id, and Ctx copies whichever are present onto the line:
//
//	logging.CtxWarn(ctx).Str("tid", tid).Msg("Event rejected")
//
// Two adapters route third-party logs into the same stream:
//
//   - SlogHandler for log/slog consumers (sutureslog in the supervisor tree)
//   - WatermillAdapter for the Watermill router, publisher and subscriber
//
// EventLogger carries the fixed field set used for per-event lines
// (catalogue, collection, tid, event, version, process_id) so that the
// processor, the import handler and the router log events identically.
//
// Always end a chain with Msg or Send; an unterminated event is dropped.
package logging
