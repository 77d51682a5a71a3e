// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package migration

import (
	"fmt"

	"github.com/tomtom215/chronicle/internal/events"
	"github.com/tomtom215/chronicle/internal/logging"
)

// Engine applies migration steps to events.
type Engine struct {
	table *Table
	// OnStep, when set, is called after every applied step.
	OnStep func(catalog, collection, from, to string)
}

// NewEngine returns an Engine over table. A nil table has no steps.
func NewEngine(table *Table) *Engine {
	return &Engine{table: table}
}

// MigrateEvent rewrites ev.Data in place until ev.Version equals target. An
// event already at target is returned untouched without any lookup.
func (e *Engine) MigrateEvent(ev *events.Event, catalog, collection, target string) (*events.Event, error) {
	// A chain is acyclic, so it visits every version at most once.
	for steps := 0; ev.Version != target; steps++ {
		if steps > e.table.Len() {
			return ev, &PathError{Catalog: catalog, Collection: collection, From: ev.Version, Target: target}
		}
		m, ok := e.table.Lookup(catalog, collection, ev.Version)
		if !ok {
			logging.Error().
				Str("catalogue", catalog).
				Str("collection", collection).
				Str("version", ev.Version).
				Str("target_version", target).
				Msg("No migration found")
			return ev, &PathError{Catalog: catalog, Collection: collection, From: ev.Version, Target: target}
		}
		if err := applyMigration(ev, m); err != nil {
			return ev, fmt.Errorf("migrate %s:%s %s -> %s: %w", catalog, collection, ev.Version, m.TargetVersion, err)
		}
		from := ev.Version
		ev.Version = m.TargetVersion
		if e.OnStep != nil {
			e.OnStep(catalog, collection, from, ev.Version)
		}
	}
	return ev, nil
}

func applyMigration(ev *events.Event, m Migration) error {
	for _, c := range m.Conversions {
		var err error
		switch c.Action {
		case ActionRename:
			err = renameColumn(ev, c.OldColumn, c.NewColumn)
		case ActionDelete:
			err = deleteColumn(ev, c.Column)
		case ActionAdd:
			err = addColumn(ev, c.Column, c.Default)
		default:
			return fmt.Errorf("%w: %q", ErrUnsupportedConversion, c.Action)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// renameColumn moves an ADD attribute or rewrites MODIFY keys. A missing
// ADD attribute is left missing.
func renameColumn(ev *events.Event, oldKey, newKey string) error {
	switch ev.Kind.Action() {
	case events.Add:
		entity, err := addEntity(ev)
		if err != nil {
			return err
		}
		if v, ok := entity[oldKey]; ok {
			delete(entity, oldKey)
			entity[newKey] = v
		}
	case events.Modify:
		mods, err := modifyEntries(ev)
		if err != nil {
			return err
		}
		for _, m := range mods {
			if m["key"] == oldKey {
				m["key"] = newKey
			}
		}
	}
	return nil
}

func deleteColumn(ev *events.Event, column string) error {
	switch ev.Kind.Action() {
	case events.Add:
		entity, err := addEntity(ev)
		if err != nil {
			return err
		}
		delete(entity, column)
	case events.Modify:
		mods, err := modifyEntries(ev)
		if err != nil {
			return err
		}
		kept := make([]any, 0, len(mods))
		for _, m := range mods {
			if m["key"] != column {
				kept = append(kept, m)
			}
		}
		ev.Data[events.KeyModifications] = kept
	}
	return nil
}

// addColumn only touches ADD payloads: a MODIFY diff cannot gain a value.
func addColumn(ev *events.Event, column string, def any) error {
	if ev.Kind.Action() != events.Add {
		return nil
	}
	entity, err := addEntity(ev)
	if err != nil {
		return err
	}
	if _, ok := entity[column]; !ok {
		entity[column] = def
	}
	return nil
}

func addEntity(ev *events.Event) (map[string]any, error) {
	entity := ev.Entity()
	if entity == nil {
		return nil, fmt.Errorf("%w: ADD payload has no entity", events.ErrInvalidPayload)
	}
	return entity, nil
}

func modifyEntries(ev *events.Event) ([]map[string]any, error) {
	raw, ok := ev.Data[events.KeyModifications].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: MODIFY payload has no modifications list", events.ErrInvalidPayload)
	}
	out := make([]map[string]any, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: modification %d is not an object", events.ErrInvalidPayload, i)
		}
		out = append(out, m)
	}
	return out, nil
}
