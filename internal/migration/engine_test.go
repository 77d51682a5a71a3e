// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package migration

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tomtom215/chronicle/internal/events"
)

func mustTable(t *testing.T, def Definition) *Table {
	t.Helper()
	table, err := NewTable(def)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return table
}

func single(from string, m Migration) Definition {
	return Definition{"cat": {"coll": {from: m}}}
}

func addEvent(entity map[string]any, version string) *events.Event {
	return &events.Event{
		Kind:    events.Add,
		Version: version,
		Data:    map[string]any{events.KeyEntity: entity, "_last_event": nil, "_tid": "1"},
	}
}

func modifyEvent(keys []string, version string) *events.Event {
	mods := make([]any, len(keys))
	for i, k := range keys {
		mods[i] = map[string]any{"key": k, "old_value": nil, "new_value": k + "-new"}
	}
	return &events.Event{
		Kind:    events.Modify,
		Version: version,
		Data:    map[string]any{events.KeyModifications: mods, "_hash": "h", "_tid": "1"},
	}
}

func modifyKeys(t *testing.T, ev *events.Event) []string {
	t.Helper()
	mods, err := ev.Modifications()
	if err != nil {
		t.Fatalf("Modifications() error = %v", err)
	}
	keys := make([]string, len(mods))
	for i, m := range mods {
		keys[i] = m.Key
	}
	return keys
}

func TestMigrateEvent_RenameAdd(t *testing.T) {
	engine := NewEngine(mustTable(t, single("1.0", Migration{
		TargetVersion: "1.1",
		Conversions:   []Conversion{{Action: ActionRename, OldColumn: "a", NewColumn: "b"}},
	})))

	ev := addEvent(map[string]any{"a": "value"}, "1.0")
	got, err := engine.MigrateEvent(ev, "cat", "coll", "1.1")
	if err != nil {
		t.Fatalf("MigrateEvent() error = %v", err)
	}
	entity := got.Entity()
	if entity["b"] != "value" {
		t.Errorf("entity.b = %v, want value", entity["b"])
	}
	if _, ok := entity["a"]; ok {
		t.Error("entity.a should be gone")
	}
	if got.Version != "1.1" {
		t.Errorf("Version = %s, want 1.1", got.Version)
	}
}

func TestMigrateEvent_Conversions(t *testing.T) {
	tests := []struct {
		name       string
		conversion Conversion
		event      *events.Event
		wantEntity map[string]any
		wantKeys   []string
	}{
		{
			name:       "rename modify",
			conversion: Conversion{Action: ActionRename, OldColumn: "a", NewColumn: "b"},
			event:      modifyEvent([]string{"a", "c"}, "1"),
			wantKeys:   []string{"b", "c"},
		},
		{
			name:       "rename missing add attribute",
			conversion: Conversion{Action: ActionRename, OldColumn: "x", NewColumn: "y"},
			event:      addEvent(map[string]any{"a": 1}, "1"),
			wantEntity: map[string]any{"a": 1},
		},
		{
			name:       "delete add",
			conversion: Conversion{Action: ActionDelete, Column: "a"},
			event:      addEvent(map[string]any{"a": 1, "b": 2}, "1"),
			wantEntity: map[string]any{"b": 2},
		},
		{
			name:       "delete absent add",
			conversion: Conversion{Action: ActionDelete, Column: "z"},
			event:      addEvent(map[string]any{"a": 1}, "1"),
			wantEntity: map[string]any{"a": 1},
		},
		{
			name:       "delete modify",
			conversion: Conversion{Action: ActionDelete, Column: "a"},
			event:      modifyEvent([]string{"a", "b", "a"}, "1"),
			wantKeys:   []string{"b"},
		},
		{
			name:       "add inserts default",
			conversion: Conversion{Action: ActionAdd, Column: "s", Default: "A"},
			event:      addEvent(map[string]any{"a": 1}, "1"),
			wantEntity: map[string]any{"a": 1, "s": "A"},
		},
		{
			name:       "add keeps existing",
			conversion: Conversion{Action: ActionAdd, Column: "a", Default: 9},
			event:      addEvent(map[string]any{"a": 1}, "1"),
			wantEntity: map[string]any{"a": 1},
		},
		{
			name:       "add ignores modify",
			conversion: Conversion{Action: ActionAdd, Column: "s", Default: "A"},
			event:      modifyEvent([]string{"a"}, "1"),
			wantKeys:   []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(mustTable(t, single("1", Migration{
				TargetVersion: "2",
				Conversions:   []Conversion{tt.conversion},
			})))
			got, err := engine.MigrateEvent(tt.event, "cat", "coll", "2")
			if err != nil {
				t.Fatalf("MigrateEvent() error = %v", err)
			}
			if tt.wantEntity != nil && !reflect.DeepEqual(got.Entity(), tt.wantEntity) {
				t.Errorf("entity = %v, want %v", got.Entity(), tt.wantEntity)
			}
			if tt.wantKeys != nil && !reflect.DeepEqual(modifyKeys(t, got), tt.wantKeys) {
				t.Errorf("keys = %v, want %v", modifyKeys(t, got), tt.wantKeys)
			}
			if got.Version != "2" {
				t.Errorf("Version = %s, want 2", got.Version)
			}
		})
	}
}

func TestMigrateEvent_DeleteAndConfirmUntouched(t *testing.T) {
	engine := NewEngine(mustTable(t, single("1", Migration{
		TargetVersion: "2",
		Conversions: []Conversion{
			{Action: ActionRename, OldColumn: "a", NewColumn: "b"},
			{Action: ActionDelete, Column: "c"},
			{Action: ActionAdd, Column: "d", Default: 1},
		},
	})))
	for _, kind := range []events.Kind{events.Delete, events.Confirm, events.BulkConfirm} {
		t.Run(kind.String(), func(t *testing.T) {
			data := map[string]any{"_last_event": 1, "_tid": "x"}
			ev := &events.Event{Kind: kind, Version: "1", Data: data}
			got, err := engine.MigrateEvent(ev, "cat", "coll", "2")
			if err != nil {
				t.Fatalf("MigrateEvent() error = %v", err)
			}
			if !reflect.DeepEqual(got.Data, map[string]any{"_last_event": 1, "_tid": "x"}) {
				t.Errorf("Data = %v", got.Data)
			}
			if got.Version != "2" {
				t.Errorf("Version = %s", got.Version)
			}
		})
	}
}

func TestMigrateEvent_Chain(t *testing.T) {
	var steps []string
	engine := NewEngine(mustTable(t, Definition{"cat": {"coll": {
		"1.0": {TargetVersion: "1.1", Conversions: []Conversion{{Action: ActionRename, OldColumn: "a", NewColumn: "b"}}},
		"1.1": {TargetVersion: "2.0", Conversions: []Conversion{{Action: ActionRename, OldColumn: "b", NewColumn: "c"}}},
	}}}))
	engine.OnStep = func(_, _, from, to string) { steps = append(steps, from+"->"+to) }

	got, err := engine.MigrateEvent(addEvent(map[string]any{"a": 1}, "1.0"), "cat", "coll", "2.0")
	if err != nil {
		t.Fatalf("MigrateEvent() error = %v", err)
	}
	if !reflect.DeepEqual(got.Entity(), map[string]any{"c": 1}) {
		t.Errorf("entity = %v", got.Entity())
	}
	if !reflect.DeepEqual(steps, []string{"1.0->1.1", "1.1->2.0"}) {
		t.Errorf("steps = %v", steps)
	}
}

func TestMigrateEvent_AlreadyCurrent(t *testing.T) {
	// A nil table proves no lookup happens.
	engine := NewEngine(nil)
	ev := addEvent(map[string]any{"a": 1}, "3.0")
	got, err := engine.MigrateEvent(ev, "cat", "coll", "3.0")
	if err != nil {
		t.Fatalf("MigrateEvent() error = %v", err)
	}
	if got != ev || !reflect.DeepEqual(got.Entity(), map[string]any{"a": 1}) {
		t.Error("event should be returned unchanged")
	}
}

func TestMigrateEvent_NoPath(t *testing.T) {
	engine := NewEngine(mustTable(t, Definition{"cat": {"coll": {
		"1.0": {TargetVersion: "1.1", Conversions: []Conversion{{Action: ActionRename, OldColumn: "a", NewColumn: "b"}}},
	}}}))

	tests := []struct {
		name        string
		version     string
		catalog     string
		target      string
		wantVersion string
		wantEntity  map[string]any
	}{
		{"unknown version", "0.9", "cat", "1.1", "0.9", map[string]any{"a": 1}},
		{"unknown catalog", "1.0", "other", "1.1", "1.0", map[string]any{"a": 1}},
		{"target beyond chain", "1.0", "cat", "5.0", "1.1", map[string]any{"b": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := addEvent(map[string]any{"a": 1}, tt.version)
			_, err := engine.MigrateEvent(ev, tt.catalog, "coll", tt.target)
			if !errors.Is(err, ErrMigrationPath) {
				t.Fatalf("error = %v, want ErrMigrationPath", err)
			}
			var pe *PathError
			if !errors.As(err, &pe) || pe.Target != tt.target {
				t.Errorf("PathError = %+v", pe)
			}
			if ev.Version != tt.wantVersion {
				t.Errorf("Version = %s, want %s", ev.Version, tt.wantVersion)
			}
			if !reflect.DeepEqual(ev.Entity(), tt.wantEntity) {
				t.Errorf("entity = %v, want %v", ev.Entity(), tt.wantEntity)
			}
		})
	}
}

func TestMigrateEvent_UnsupportedConversion(t *testing.T) {
	engine := NewEngine(mustTable(t, single("1", Migration{
		TargetVersion: "2",
		Conversions:   []Conversion{{Action: "split", Column: "a"}},
	})))
	ev := addEvent(map[string]any{"a": 1}, "1")
	_, err := engine.MigrateEvent(ev, "cat", "coll", "2")
	if !errors.Is(err, ErrUnsupportedConversion) {
		t.Fatalf("error = %v, want ErrUnsupportedConversion", err)
	}
	if ev.Version != "1" {
		t.Errorf("Version = %s, want unchanged 1", ev.Version)
	}
}

func TestMigrateEvent_MalformedPayload(t *testing.T) {
	engine := NewEngine(mustTable(t, single("1", Migration{
		TargetVersion: "2",
		Conversions:   []Conversion{{Action: ActionDelete, Column: "a"}},
	})))
	ev := &events.Event{Kind: events.Modify, Version: "1", Data: map[string]any{}}
	if _, err := engine.MigrateEvent(ev, "cat", "coll", "2"); !errors.Is(err, events.ErrInvalidPayload) {
		t.Errorf("error = %v, want ErrInvalidPayload", err)
	}
}
