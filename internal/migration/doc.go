// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

/*
Package migration rewrites event payloads written against an older schema
version so they can be applied against the live version.

The migration table maps (catalog, collection, source version) to a target
version and an ordered list of conversions:

	meetbouten:
	  meetbouten:
	    "1.0":
	      target_version: "1.1"
	      conversions:
	        - action: rename
	          old_column: a
	          new_column: b
	        - action: delete
	          column: obsolete
	        - action: add
	          column: status
	          default: "A"

Engine.MigrateEvent applies steps until the event's version equals the
target. Conversions are pure payload transforms, so a failed migration never
leaves an entity-visible side effect. The table is immutable after loading.
*/
package migration
