// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrMigrationPath is matched by every *PathError.
	ErrMigrationPath = errors.New("no migration path")

	// ErrUnsupportedConversion is returned for conversion actions other
	// than rename, delete and add.
	ErrUnsupportedConversion = errors.New("conversion not implemented")

	// ErrInvalidConversion is returned for malformed migration definitions.
	ErrInvalidConversion = errors.New("invalid conversion definition")

	// ErrMigrationCycle is returned when a chain of steps revisits a version.
	ErrMigrationCycle = errors.New("migration chain contains a cycle")
)

// PathError reports an event version with no migration towards the target.
type PathError struct {
	Catalog    string
	Collection string
	From       string
	Target     string
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("not able to migrate event for %s, %s from version %s to version %s",
		e.Catalog, e.Collection, e.From, e.Target)
}

// Is makes errors.Is(err, ErrMigrationPath) true.
func (e *PathError) Is(target error) bool {
	return target == ErrMigrationPath
}
