// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package events

import (
	"fmt"

	"github.com/tomtom215/chronicle/internal/model"
)

// Kind is the event discriminant.
type Kind int

const (
	// Unknown is the zero Kind.
	Unknown Kind = iota
	Add
	Modify
	Delete
	Confirm
	BulkConfirm
)

var kindNames = map[Kind]string{
	Add:         "ADD",
	Modify:      "MODIFY",
	Delete:      "DELETE",
	Confirm:     "CONFIRM",
	BulkConfirm: "BULKCONFIRM",
}

// String returns the wire name.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind resolves a wire name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return Unknown, fmt.Errorf("%w: unknown event %q", ErrInvalidPayload, name)
}

// TimestampField is the entity attribute stamped when this kind is applied.
func (k Kind) TimestampField() string {
	switch k {
	case Add:
		return model.FieldDateCreated
	case Modify:
		return model.FieldDateModified
	case Delete:
		return model.FieldDateDeleted
	case Confirm, BulkConfirm:
		return model.FieldDateConfirmed
	}
	return ""
}

// IsAddNew reports whether the kind (re)creates an entity.
func (k Kind) IsAddNew() bool {
	return k == Add
}

// Action is the externally reported action. BULKCONFIRM reports CONFIRM.
func (k Kind) Action() Kind {
	if k == BulkConfirm {
		return Confirm
	}
	return k
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("%w: invalid event kind %d", ErrInvalidPayload, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
