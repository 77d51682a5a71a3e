// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package events

import (
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/chronicle/internal/model"
	"github.com/tomtom215/chronicle/internal/typesystem"
)

// Entity is the attribute get/set contract the event model needs from the
// persistence layer. Set receives storage-ready values (typesystem ToDB).
type Entity interface {
	Get(name string) (any, bool)
	Set(name string, value any)
}

// Metadata is the message header context an event is applied under.
type Metadata struct {
	Catalogue   string
	Collection  string
	Source      string
	Application string
	Timestamp   time.Time
	ProcessID   string
}

// skipAttributes are bookkeeping keys echoed in payloads that are never
// written as entity attributes.
var skipAttributes = map[string]bool{
	model.FieldSourceID:  true,
	model.FieldLastEvent: true,
}

type write struct {
	name  string
	value any
}

// ApplyTo writes the event onto entity using the live collection's field
// types. All values are converted before the first write, so on error the
// entity is unchanged.
func (e *Event) ApplyTo(entity Entity, coll *model.Collection, meta Metadata) error {
	writes, err := e.plan(coll, meta)
	if err != nil {
		return err
	}
	for _, w := range writes {
		entity.Set(w.name, w.value)
	}
	return nil
}

// plan returns the ordered attribute writes ApplyTo performs.
func (e *Event) plan(coll *model.Collection, meta Metadata) ([]write, error) {
	var (
		writes     []write
		attributes map[string]any
	)

	switch e.Kind {
	case Add:
		writes = append(writes, write{model.FieldDateDeleted, nil})
		attributes = e.Entity()
		if attributes == nil {
			return nil, fmt.Errorf("%w: ADD payload has no entity", ErrInvalidPayload)
		}
	case Modify:
		mods, err := e.Modifications()
		if err != nil {
			return nil, err
		}
		writes = append(writes, write{model.FieldHash, e.Hash()})
		// old_value is not compared with the entity: it is a JSON-domain
		// value and the entity holds storage values.
		attributes = make(map[string]any, len(mods))
		for _, m := range mods {
			attributes[m.Key] = m.NewValue
		}
	case Delete, Confirm:
	case BulkConfirm:
		return nil, fmt.Errorf("%w: expand BULKCONFIRM into CONFIRM events first", ErrNotApplicable)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidPayload, e.Kind)
	}

	writes = append(writes,
		write{e.Kind.TimestampField(), meta.Timestamp},
		write{model.FieldApplication, meta.Application},
	)

	names := make([]string, 0, len(attributes))
	for name := range attributes {
		if !skipAttributes[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		field, ok := coll.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no attribute %q", ErrUnknownAttribute, coll.Reference(), name)
		}
		v, err := typesystem.FromValue(field.Kind, attributes[name], typesystem.Options{})
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		writes = append(writes, write{name, v.ToDB()})
	}
	return writes, nil
}
