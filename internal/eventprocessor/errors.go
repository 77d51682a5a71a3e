// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package eventprocessor

import (
	"context"
	"errors"
	"strings"

	"github.com/tomtom215/chronicle/internal/entity"
	"github.com/tomtom215/chronicle/internal/events"
	"github.com/tomtom215/chronicle/internal/migration"
	"github.com/tomtom215/chronicle/internal/model"
	"github.com/tomtom215/chronicle/internal/store"
	"github.com/tomtom215/chronicle/internal/typesystem"
)

var (
	// ErrOutOfOrder is returned when an event's _last_event back-pointer
	// does not match the entity it would be applied to.
	ErrOutOfOrder = errors.New("event out of order")

	// ErrInvalidHeader is returned when a message header is incomplete.
	ErrInvalidHeader = errors.New("invalid message header")

	// ErrInvalidMessage is returned when a message body cannot be decoded.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrNilPublisher is returned when a component requiring a publisher gets nil.
	ErrNilPublisher = errors.New("publisher cannot be nil")

	// ErrInvalidConfig is returned when configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("publisher is closed")
)

// ErrorCategory categorizes errors for dead-letter routing and metrics.
type ErrorCategory int

const (
	// ErrorCategoryUnknown is the default category for unclassified errors.
	ErrorCategoryUnknown ErrorCategory = iota
	// ErrorCategoryConnection indicates network or connection failures.
	ErrorCategoryConnection
	// ErrorCategoryTimeout indicates operation timeout.
	ErrorCategoryTimeout
	// ErrorCategoryValidation indicates malformed messages and events.
	ErrorCategoryValidation
	// ErrorCategoryDatabase indicates store failures.
	ErrorCategoryDatabase
	// ErrorCategoryConversion indicates a value that cannot take its declared type.
	ErrorCategoryConversion
	// ErrorCategoryMigration indicates a missing or unsupported migration.
	ErrorCategoryMigration
	// ErrorCategoryOrdering indicates a back-pointer mismatch.
	ErrorCategoryOrdering
)

// String returns the string representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryConnection:
		return "connection"
	case ErrorCategoryTimeout:
		return "timeout"
	case ErrorCategoryValidation:
		return "validation"
	case ErrorCategoryDatabase:
		return "database"
	case ErrorCategoryConversion:
		return "conversion"
	case ErrorCategoryMigration:
		return "migration"
	case ErrorCategoryOrdering:
		return "ordering"
	default:
		return "unknown"
	}
}

// RetryableError represents an error that can be retried.
// These errors are typically transient (store unavailable, out-of-order
// delivery that a later redelivery may resolve).
type RetryableError struct {
	Message  string
	Cause    error
	Category ErrorCategory
}

// NewRetryableError creates a new retryable error.
func NewRetryableError(message string, cause error) *RetryableError {
	return &RetryableError{
		Message:  message,
		Cause:    cause,
		Category: categorizeErrorMessage(message),
	}
}

// Error implements the error interface.
func (e *RetryableError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *RetryableError) Unwrap() error {
	return e.Cause
}

// PermanentError represents an error that should not be retried.
// These errors indicate unrecoverable issues (conversion, malformed data).
type PermanentError struct {
	Message  string
	Cause    error
	Category ErrorCategory
}

// NewPermanentError creates a new permanent error.
func NewPermanentError(message string, cause error) *PermanentError {
	category := categorizeErrorMessage(message)
	if category == ErrorCategoryUnknown {
		category = ErrorCategoryValidation
	}
	return &PermanentError{
		Message:  message,
		Cause:    cause,
		Category: category,
	}
}

// Error implements the error interface.
func (e *PermanentError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *PermanentError) Unwrap() error {
	return e.Cause
}

// Classify maps a pipeline error onto the retryable/permanent pair.
// Errors that are already classified are returned unchanged. Conversion,
// construction, payload and migration errors are permanent; ordering and
// infrastructure failures are retryable.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var re *RetryableError
	var pe *PermanentError
	if errors.As(err, &re) || errors.As(err, &pe) {
		return err
	}

	switch {
	case errors.Is(err, typesystem.ErrTypeConversion), errors.Is(err, typesystem.ErrUnknownType):
		return &PermanentError{Message: "conversion failed", Cause: err, Category: ErrorCategoryConversion}
	case errors.Is(err, migration.ErrMigrationPath),
		errors.Is(err, migration.ErrUnsupportedConversion),
		errors.Is(err, migration.ErrInvalidConversion):
		return &PermanentError{Message: "migration failed", Cause: err, Category: ErrorCategoryMigration}
	case errors.Is(err, events.ErrEventConstruction),
		errors.Is(err, events.ErrInvalidPayload),
		errors.Is(err, events.ErrUnknownAttribute),
		errors.Is(err, events.ErrNotApplicable),
		errors.Is(err, entity.ErrUnknownAttribute),
		errors.Is(err, model.ErrNoSuchCatalog),
		errors.Is(err, model.ErrNoSuchCollection),
		errors.Is(err, ErrInvalidHeader),
		errors.Is(err, ErrInvalidMessage):
		return &PermanentError{Message: "invalid event", Cause: err, Category: ErrorCategoryValidation}
	case errors.Is(err, ErrOutOfOrder):
		return &RetryableError{Message: "out of order", Cause: err, Category: ErrorCategoryOrdering}
	case errors.Is(err, context.DeadlineExceeded):
		return &RetryableError{Message: "timeout", Cause: err, Category: ErrorCategoryTimeout}
	case errors.Is(err, store.ErrClosed):
		return &RetryableError{Message: "store failed", Cause: err, Category: ErrorCategoryDatabase}
	default:
		return NewRetryableError(err.Error(), err)
	}
}

// IsRetryableError reports whether err (or anything it wraps) is retryable.
func IsRetryableError(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// IsPermanentError reports whether err (or anything it wraps) is permanent.
func IsPermanentError(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// CategoryOf returns the category of a classified error.
func CategoryOf(err error) ErrorCategory {
	var re *RetryableError
	if errors.As(err, &re) {
		return re.Category
	}
	var pe *PermanentError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorCategoryUnknown
}

// categorizeErrorMessage attempts to categorize an error based on its message.
func categorizeErrorMessage(message string) ErrorCategory {
	switch {
	case containsAny(message, "connection", "connect", "refused", "reset", "network", "nats"):
		return ErrorCategoryConnection
	case containsAny(message, "timeout", "deadline", "timed out"):
		return ErrorCategoryTimeout
	case containsAny(message, "invalid", "validation", "malformed", "parse"):
		return ErrorCategoryValidation
	case containsAny(message, "database", "store", "badger", "sql", "query"):
		return ErrorCategoryDatabase
	default:
		return ErrorCategoryUnknown
	}
}

func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
