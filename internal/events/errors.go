// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package events

import (
	"errors"
	"fmt"
)

var (
	// ErrEventConstruction is matched by every *ConstructionError.
	ErrEventConstruction = errors.New("invalid event data")

	// ErrUnknownAttribute is returned when a payload names an attribute the
	// live collection does not have.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrInvalidPayload is returned for payloads that do not have the shape
	// their kind requires.
	ErrInvalidPayload = errors.New("invalid event payload")

	// ErrNotApplicable is returned when ApplyTo is called on a BULKCONFIRM.
	ErrNotApplicable = errors.New("event cannot be applied directly")
)

// ConstructionError reports raw change data that cannot form an event.
type ConstructionError struct {
	Kind   Kind
	Reason string
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s event: %s", e.Kind, e.Reason)
}

// Is makes errors.Is(err, ErrEventConstruction) true.
func (e *ConstructionError) Is(target error) bool {
	return target == ErrEventConstruction
}
