// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to run a real PostgreSQL server for the
// postgres entity store:
//
//	func TestPostgresStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    s, err := store.OpenPostgres(ctx, store.PostgresConfig{DSN: pg.DSN}, codec)
//	    // ...
//	}
//
// Files in this package carry the integration build tag; run them with
// go test -tags integration. Tests are skipped when Docker is unavailable.
package testinfra
