// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

/*
Package supervisor runs chronicle's long-lived services under a suture v4
supervisor tree.

	chronicle
	├── data-layer
	│   └── badger-gc            (badger entity store only)
	├── messaging-layer
	│   └── message-router       (import handler, dedup, retry, poison queue)
	└── api-layer
	    └── http-server

Each layer restarts its own services with backoff, so a crashing router
does not take the HTTP API down with it. Supervisor events are logged
through sutureslog on top of the zerolog slog handler.

The transport (NATS connection, embedded server) and the stores are opened
before the tree starts and closed after it stops; the tree only supervises
the loops that use them.
*/
package supervisor
