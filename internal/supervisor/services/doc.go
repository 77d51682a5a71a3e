// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

/*
Package services provides suture.Service wrappers for chronicle components.

Each wrapper translates a component lifecycle into suture's context-aware
Serve pattern and implements fmt.Stringer so supervisor events name it.

  - HTTPServerService: ListenAndServe/Shutdown of the API server
  - RouterService: builds and runs a fresh message router per start
  - PeriodicService: runs a maintenance task on an interval, such as
    entity store value log GC

Return values drive supervisor behavior:

	nil         -> stopped cleanly, not restarted
	error       -> crashed, restarted with backoff
	ctx.Err()   -> shutdown requested
*/
package services
