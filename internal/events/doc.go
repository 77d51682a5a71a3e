// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

/*
Package events defines the five mutation event kinds and how each one is
built from raw change data and applied to an entity.

# Lifecycle

An Event moves through Created -> Migrated (zero or more times) -> Applied:

	ev, err := events.CreateEvent(events.Modify, "12881429.1", map[string]any{
	    "modifications": []events.Modification{{Key: "status", NewValue: "B"}},
	    "_hash":         "9f2c...",
	    "_last_event":   41,
	}, "1.0")

	// ... migration.Engine.MigrateEvent(ev, catalogue, collection, live) ...

	err = ev.ApplyTo(entity, collection, events.Metadata{
	    Application: "importer",
	    Timestamp:   time.Now(),
	})

ApplyTo converts every attribute before it writes anything, so a conversion
failure leaves the entity untouched.

# Payload Shapes

	ADD          {"entity": {...}, "_last_event": n, "_tid": id}
	MODIFY       {"modifications": [{key, old_value, new_value}], "_hash": h, "_last_event": n, "_tid": id}
	DELETE       {"_last_event": n, "_tid": id}
	CONFIRM      {"_last_event": n, "_tid": id}
	BULKCONFIRM  {"confirms": [{"_tid": id, "_last_event": n}, ...]}

BULKCONFIRM is an optimisation of CONFIRM: Expand turns it into one CONFIRM
per entity and its Action is reported as CONFIRM.
*/
package events
