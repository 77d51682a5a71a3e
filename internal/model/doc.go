// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

// Package model holds the read-only catalog/collection schema that tells the
// event and migration layers which attributes a collection has, which type
// each attribute is, and which schema version is live.
//
// A Model is loaded once at start-up (YAML through koanf, or JSON) and never
// mutated afterwards, so it is safe to share between goroutines without
// locking.
package model
