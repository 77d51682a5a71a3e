// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package events

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/chronicle/internal/model"
)

const testModel = `{"catalogs": {"meetbouten": {"abbreviation": "mbn", "version": "0.1", "collections": {
	"meetbouten": {"abbreviation": "mbt", "version": "1.0", "entity_id": "identificatie", "attributes": {
		"identificatie": {"type": "GOB.String"},
		"hoogte": {"type": "GOB.Decimal"},
		"status": {"type": "GOB.Character"},
		"indicatie_beveiligd": {"type": "GOB.Boolean"},
		"datum": {"type": "GOB.Date"},
		"ligt_in_buurt": {"type": "GOB.Reference"}
	}}}}}}`

func testCollection(t *testing.T) *model.Collection {
	t.Helper()
	m, err := model.Parse([]byte(testModel), "json")
	if err != nil {
		t.Fatalf("model.Parse() error = %v", err)
	}
	coll, err := m.Collection("meetbouten", "meetbouten")
	if err != nil {
		t.Fatalf("Collection() error = %v", err)
	}
	return coll
}

// mapEntity is a minimal Entity for tests.
type mapEntity map[string]any

func (m mapEntity) Get(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func (m mapEntity) Set(name string, value any) {
	m[name] = value
}

var testMeta = Metadata{
	Catalogue:   "meetbouten",
	Collection:  "meetbouten",
	Source:      "AMSBI",
	Application: "Grondslag",
	Timestamp:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	ProcessID:   "p-1",
}

func TestKind_Properties(t *testing.T) {
	tests := []struct {
		kind      Kind
		timestamp string
		addNew    bool
		action    Kind
	}{
		{Add, "_date_created", true, Add},
		{Modify, "_date_modified", false, Modify},
		{Delete, "_date_deleted", false, Delete},
		{Confirm, "_date_confirmed", false, Confirm},
		{BulkConfirm, "_date_confirmed", false, Confirm},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.TimestampField(); got != tt.timestamp {
				t.Errorf("TimestampField() = %s, want %s", got, tt.timestamp)
			}
			if got := tt.kind.IsAddNew(); got != tt.addNew {
				t.Errorf("IsAddNew() = %v, want %v", got, tt.addNew)
			}
			if got := tt.kind.Action(); got != tt.action {
				t.Errorf("Action() = %s, want %s", got, tt.action)
			}
			parsed, err := ParseKind(tt.kind.String())
			if err != nil || parsed != tt.kind {
				t.Errorf("ParseKind(%s) = %s, %v", tt.kind, parsed, err)
			}
		})
	}
	if _, err := ParseKind("UPSERT"); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("ParseKind(UPSERT) error = %v, want ErrInvalidPayload", err)
	}
}

func TestCreateEvent(t *testing.T) {
	t.Run("ADD drops modifications", func(t *testing.T) {
		raw := map[string]any{"identificatie": "1", "modifications": []any{}, "_last_event": nil}
		ev, err := CreateEvent(Add, "1", raw, "1.0")
		if err != nil {
			t.Fatalf("CreateEvent() error = %v", err)
		}
		entity := ev.Entity()
		if _, ok := entity[KeyModifications]; ok {
			t.Error("modifications should be removed from ADD entity")
		}
		if entity["identificatie"] != "1" {
			t.Errorf("entity = %v", entity)
		}
		if _, ok := raw[KeyModifications]; !ok {
			t.Error("input map must not be modified")
		}
		if ev.TID() != "1" || ev.Version != "1.0" {
			t.Errorf("TID() = %q, Version = %q", ev.TID(), ev.Version)
		}
	})

	t.Run("MODIFY without modifications", func(t *testing.T) {
		_, err := CreateEvent(Modify, "1", map[string]any{"_hash": "h"}, "1.0")
		if !errors.Is(err, ErrEventConstruction) {
			t.Fatalf("error = %v, want ErrEventConstruction", err)
		}
		var ce *ConstructionError
		if !errors.As(err, &ce) || ce.Kind != Modify {
			t.Errorf("error = %#v, want *ConstructionError for MODIFY", err)
		}
	})

	t.Run("MODIFY without hash", func(t *testing.T) {
		raw := map[string]any{"modifications": []Modification{{Key: "status", NewValue: "B"}}}
		if _, err := CreateEvent(Modify, "1", raw, "1.0"); !errors.Is(err, ErrEventConstruction) {
			t.Fatalf("error = %v, want ErrEventConstruction", err)
		}
	})

	t.Run("MODIFY keeps only modifications and hash", func(t *testing.T) {
		raw := map[string]any{
			"modifications": []Modification{{Key: "status", OldValue: "A", NewValue: "B"}},
			"_hash":         "abc",
			"_last_event":   41,
			"status":        "B",
		}
		ev, err := CreateEvent(Modify, "1", raw, "1.0")
		if err != nil {
			t.Fatalf("CreateEvent() error = %v", err)
		}
		if _, ok := ev.Data["status"]; ok {
			t.Error("MODIFY payload should not carry attribute data")
		}
		mods, err := ev.Modifications()
		if err != nil || len(mods) != 1 || mods[0].Key != "status" || mods[0].NewValue != "B" {
			t.Errorf("Modifications() = %v, %v", mods, err)
		}
		last, err := ev.LastEvent()
		if err != nil || last == nil || *last != 41 {
			t.Errorf("LastEvent() = %v, %v", last, err)
		}
	})

	t.Run("DELETE carries only back-pointer", func(t *testing.T) {
		ev, err := CreateEvent(Delete, "1", map[string]any{"identificatie": "1", "_last_event": 3}, "1.0")
		if err != nil {
			t.Fatalf("CreateEvent() error = %v", err)
		}
		if len(ev.Data) != 2 {
			t.Errorf("Data = %v, want only _last_event and _tid", ev.Data)
		}
	})

	t.Run("BULKCONFIRM requires confirms", func(t *testing.T) {
		if _, err := CreateEvent(BulkConfirm, "", map[string]any{}, "1.0"); !errors.Is(err, ErrEventConstruction) {
			t.Errorf("error = %v, want ErrEventConstruction", err)
		}
	})

	t.Run("missing identifier", func(t *testing.T) {
		if _, err := CreateEvent(Confirm, "", map[string]any{}, "1.0"); !errors.Is(err, ErrEventConstruction) {
			t.Errorf("error = %v, want ErrEventConstruction", err)
		}
	})
}

func TestApplyTo_Add(t *testing.T) {
	coll := testCollection(t)
	entity := mapEntity{model.FieldDateDeleted: time.Now()}

	ev, err := CreateEvent(Add, "1", map[string]any{
		"identificatie":       "1",
		"hoogte":              "1.50",
		"indicatie_beveiligd": true,
		"datum":               "2020-01-02",
		"_source_id":          "1",
		"_last_event":         nil,
	}, "1.0")
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if err := ev.ApplyTo(entity, coll, testMeta); err != nil {
		t.Fatalf("ApplyTo() error = %v", err)
	}

	if v, ok := entity[model.FieldDateDeleted]; !ok || v != nil {
		t.Errorf("_date_deleted = %v, want cleared", v)
	}
	if entity[model.FieldDateCreated] != testMeta.Timestamp {
		t.Errorf("_date_created = %v", entity[model.FieldDateCreated])
	}
	if entity[model.FieldApplication] != "Grondslag" {
		t.Errorf("_application = %v", entity[model.FieldApplication])
	}
	if d, ok := entity["hoogte"].(decimal.Decimal); !ok || !d.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("hoogte = %v (%T)", entity["hoogte"], entity["hoogte"])
	}
	if entity["indicatie_beveiligd"] != true {
		t.Errorf("indicatie_beveiligd = %v", entity["indicatie_beveiligd"])
	}
	if _, ok := entity["datum"].(time.Time); !ok {
		t.Errorf("datum = %T, want time.Time", entity["datum"])
	}
	for _, skipped := range []string{model.FieldSourceID, model.FieldLastEvent} {
		if _, ok := entity[skipped]; ok {
			t.Errorf("%s must not be written", skipped)
		}
	}
}

func TestApplyTo_Modify(t *testing.T) {
	coll := testCollection(t)
	entity := mapEntity{"status": "A", "hoogte": decimal.RequireFromString("1")}

	ev, err := CreateEvent(Modify, "1", map[string]any{
		"modifications": []Modification{
			// old_value deliberately stale: it is never checked.
			{Key: "status", OldValue: "Z", NewValue: "B"},
			{Key: "hoogte", OldValue: nil, NewValue: "2.25"},
		},
		"_hash": "hash-1",
	}, "1.0")
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if err := ev.ApplyTo(entity, coll, testMeta); err != nil {
		t.Fatalf("ApplyTo() error = %v", err)
	}
	if entity["status"] != "B" {
		t.Errorf("status = %v, want B", entity["status"])
	}
	if entity[model.FieldHash] != "hash-1" {
		t.Errorf("_hash = %v", entity[model.FieldHash])
	}
	if entity[model.FieldDateModified] != testMeta.Timestamp {
		t.Errorf("_date_modified = %v", entity[model.FieldDateModified])
	}
}

func TestApplyTo_DeleteConfirm(t *testing.T) {
	coll := testCollection(t)
	tests := []struct {
		kind  Kind
		field string
	}{
		{Delete, model.FieldDateDeleted},
		{Confirm, model.FieldDateConfirmed},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			entity := mapEntity{"status": "A"}
			ev, err := CreateEvent(tt.kind, "1", map[string]any{"_last_event": 7}, "1.0")
			if err != nil {
				t.Fatalf("CreateEvent() error = %v", err)
			}
			if err := ev.ApplyTo(entity, coll, testMeta); err != nil {
				t.Fatalf("ApplyTo() error = %v", err)
			}
			if entity[tt.field] != testMeta.Timestamp {
				t.Errorf("%s = %v", tt.field, entity[tt.field])
			}
			if entity[model.FieldApplication] != testMeta.Application {
				t.Errorf("_application = %v", entity[model.FieldApplication])
			}
			if len(entity) != 3 {
				t.Errorf("entity = %v, want only timestamp and provenance added", entity)
			}
		})
	}
}

func TestApplyTo_FailureLeavesEntityUntouched(t *testing.T) {
	coll := testCollection(t)
	tests := []struct {
		name    string
		data    map[string]any
		wantErr error
	}{
		{"unknown attribute", map[string]any{"identificatie": "1", "kleur": "rood"}, ErrUnknownAttribute},
		{"conversion failure", map[string]any{"identificatie": "1", "status": "AB"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity := mapEntity{model.FieldDateDeleted: "deleted"}
			ev, err := CreateEvent(Add, "1", tt.data, "1.0")
			if err != nil {
				t.Fatalf("CreateEvent() error = %v", err)
			}
			err = ev.ApplyTo(entity, coll, testMeta)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if len(entity) != 1 || entity[model.FieldDateDeleted] != "deleted" {
				t.Errorf("entity mutated: %v", entity)
			}
		})
	}
}

func TestBulkConfirm(t *testing.T) {
	coll := testCollection(t)
	one, two := int64(1), int64(2)
	ev, err := CreateEvent(BulkConfirm, "", map[string]any{
		"confirms": []Confirmation{{TID: "a", LastEvent: &one}, {TID: "b", LastEvent: &two}},
	}, "1.0")
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if ev.Kind.Action() != Confirm {
		t.Errorf("Action() = %s, want CONFIRM", ev.Kind.Action())
	}
	if err := ev.ApplyTo(mapEntity{}, coll, testMeta); !errors.Is(err, ErrNotApplicable) {
		t.Errorf("ApplyTo() error = %v, want ErrNotApplicable", err)
	}

	expanded, err := ev.Expand()
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if len(expanded) != 2 {
		t.Fatalf("len(Expand()) = %d, want 2", len(expanded))
	}
	for i, want := range []struct {
		tid  string
		last int64
	}{{"a", 1}, {"b", 2}} {
		got := expanded[i]
		last, _ := got.LastEvent()
		if got.Kind != Confirm || got.TID() != want.tid || last == nil || *last != want.last {
			t.Errorf("expanded[%d] = %+v", i, got)
		}
	}
}

func TestEvent_WireFormat(t *testing.T) {
	in := `{"event": "ADD", "data": {"entity": {"identificatie": "1", "hoogte": 1.50}, "_last_event": 12, "_tid": "1"}, "version": "0.9"}`
	ev, err := Decode([]byte(in))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if ev.Kind != Add || ev.Version != "0.9" || ev.TID() != "1" {
		t.Errorf("decoded = %+v", ev)
	}
	if n, ok := ev.Entity()["hoogte"].(json.Number); !ok || n.String() != "1.50" {
		t.Errorf("hoogte = %#v, want json.Number 1.50", ev.Entity()["hoogte"])
	}
	last, err := ev.LastEvent()
	if err != nil || *last != 12 {
		t.Errorf("LastEvent() = %v, %v", last, err)
	}

	out, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(out), `"event":"ADD"`) || !strings.Contains(string(out), `"version":"0.9"`) {
		t.Errorf("Marshal() = %s", out)
	}

	for _, bad := range []string{`{"event": "UPSERT", "data": {}}`, `{"data": {}}`, `[`} {
		if _, err := Decode([]byte(bad)); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("Decode(%s) error = %v, want ErrInvalidPayload", bad, err)
		}
	}
}

func TestEvent_Clone(t *testing.T) {
	ev, _ := CreateEvent(Add, "1", map[string]any{"identificatie": "1"}, "1.0")
	c := ev.Clone()
	c.Entity()["identificatie"] = "2"
	c.Version = "2.0"
	if ev.Entity()["identificatie"] != "1" || ev.Version != "1.0" {
		t.Error("Clone() shares state with the original")
	}
}

func TestDiff(t *testing.T) {
	coll := testCollection(t)
	entity := mapEntity{
		"status":        "A",
		"hoogte":        decimal.RequireFromString("1.5"),
		"ligt_in_buurt": map[string]any{"bronwaarde": "B1", "id": "x"},
	}
	mods, err := Diff(entity, coll, map[string]any{
		"status":        "A",
		"hoogte":        "1.75",
		"ligt_in_buurt": map[string]any{"bronwaarde": "B1"},
		"_source_id":    "ignored",
	})
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if len(mods) != 1 || mods[0].Key != "hoogte" {
		t.Fatalf("Diff() = %+v, want only hoogte", mods)
	}
	if n, ok := mods[0].NewValue.(json.Number); !ok || n.String() != "1.75" {
		t.Errorf("NewValue = %#v", mods[0].NewValue)
	}

	if _, err := Diff(entity, coll, map[string]any{"kleur": "rood"}); !errors.Is(err, ErrUnknownAttribute) {
		t.Errorf("error = %v, want ErrUnknownAttribute", err)
	}
}

func TestContentHash(t *testing.T) {
	a, err := ContentHash(map[string]any{"a": 1, "b": "x"})
	if err != nil {
		t.Fatalf("ContentHash() error = %v", err)
	}
	b, _ := ContentHash(map[string]any{"b": "x", "a": 1})
	c, _ := ContentHash(map[string]any{"a": 2, "b": "x"})
	if a != b {
		t.Error("hash depends on key order")
	}
	if a == c {
		t.Error("different data produced the same hash")
	}
	if len(a) != 32 {
		t.Errorf("len(hash) = %d, want 32", len(a))
	}
}
