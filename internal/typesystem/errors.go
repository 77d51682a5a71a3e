// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package typesystem

import (
	"errors"
	"fmt"
)

// ErrTypeConversion is matched by every *ConversionError.
var ErrTypeConversion = errors.New("type conversion failed")

// ErrUnknownType is returned by ParseKind for names outside the registry.
var ErrUnknownType = errors.New("unknown attribute type")

// ConversionError reports a raw value that cannot be represented as Kind.
type ConversionError struct {
	Kind   Kind
	Value  any
	Reason string
	Cause  error
}

func conversionError(kind Kind, value any, reason string, cause error) *ConversionError {
	return &ConversionError{Kind: kind, Value: value, Reason: reason, Cause: cause}
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("value %s cannot be interpreted as %s", describe(e.Value), e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrTypeConversion) true for every ConversionError.
func (e *ConversionError) Is(target error) bool {
	return target == ErrTypeConversion
}

func describe(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("'%v' (%T)", v, v)
}
