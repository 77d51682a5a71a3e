// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

/*
Package typesystem implements the typed attribute values carried by mutation
events and stored on entities.

Every value is a (Kind, canonical string) pair. The canonical string is the
only state a Value holds; the JSON, storage and plain-value forms are derived
from it on demand and can never drift from each other.

# Construction

Values are built in one of two ways:

	// From a canonical string that is already known to be valid
	v, err := typesystem.New(typesystem.Integer, typesystem.Ptr("42"))

	// From heterogeneous raw input (import data, decoded JSON, DB values)
	v, err := typesystem.FromValue(typesystem.Decimal, "123,45", typesystem.Options{
	    DecimalSeparator: ",",
	})

FromValue never fails for a nil input; it returns a null Value of the
requested kind. Every other malformed input returns a *ConversionError that
matches ErrTypeConversion with errors.Is.

# Representations

  - JSON: the JSON text used in event payloads ("null" for null values)
  - ToDB: a storage-ready Go value (int64, decimal.Decimal, time.Time, ...)
  - ToValue: a plain Go value for API output and round-tripping

# Type Names

Kinds are resolved from model type names with ParseKind, which accepts both
the qualified ("GOB.Decimal") and bare ("Decimal") forms. Geometry types
("GOB.Geo.Point", "GOB.Geo.Polygon", ...) travel as WKT text and resolve to
String.
*/
package typesystem
