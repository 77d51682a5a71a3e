// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

// Package entity provides the in-memory entity record that events are
// applied to, and the codec that persists it in canonical-string form.
package entity

import (
	"time"

	"github.com/tomtom215/chronicle/internal/model"
)

// Key identifies an entity.
type Key struct {
	Catalogue  string `json:"catalogue"`
	Collection string `json:"collection"`
	TID        string `json:"tid"`
}

// String returns "catalogue:collection:tid".
func (k Key) String() string {
	return k.Catalogue + ":" + k.Collection + ":" + k.TID
}

// Record is a mutable entity. It satisfies events.Entity. Values are held in
// their storage form (typesystem ToDB). A Record is not safe for concurrent
// use; the processor owns one per event.
type Record struct {
	Key   Key
	attrs map[string]any
}

// New returns an empty record.
func New(key Key) *Record {
	return &Record{Key: key, attrs: make(map[string]any)}
}

// Get returns an attribute value.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

// Set writes an attribute value.
func (r *Record) Set(name string, value any) {
	r.attrs[name] = value
}

// Attributes returns a copy of all attribute values.
func (r *Record) Attributes() map[string]any {
	out := make(map[string]any, len(r.attrs))
	for k, v := range r.attrs {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy. Attribute values are immutable
// storage values, so a shallow map copy suffices.
func (r *Record) Clone() *Record {
	return &Record{Key: r.Key, attrs: r.Attributes()}
}

// LastEvent returns the id of the last applied event, or nil.
func (r *Record) LastEvent() *int64 {
	switch v := r.attrs[model.FieldLastEvent].(type) {
	case int64:
		return &v
	case int:
		n := int64(v)
		return &n
	}
	return nil
}

// SetLastEvent records the id of the event just applied.
func (r *Record) SetLastEvent(id int64) {
	r.attrs[model.FieldLastEvent] = id
}

// DateDeleted returns the soft-delete timestamp, or nil.
func (r *Record) DateDeleted() *time.Time {
	if t, ok := r.attrs[model.FieldDateDeleted].(time.Time); ok {
		return &t
	}
	return nil
}

// IsDeleted reports whether the entity is soft-deleted.
func (r *Record) IsDeleted() bool {
	return r.DateDeleted() != nil
}

// Hash returns the content hash recorded by the last MODIFY.
func (r *Record) Hash() string {
	s, _ := r.attrs[model.FieldHash].(string)
	return s
}
