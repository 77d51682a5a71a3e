// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/chronicle/internal/model"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()
	m, err := model.Load("../model/testdata/model.yaml")
	if err != nil {
		t.Fatalf("model.Load() error = %v", err)
	}
	return NewCodec(m)
}

var testKey = Key{Catalogue: "meetbouten", Collection: "meetbouten", TID: "1"}

func TestRecord_Accessors(t *testing.T) {
	r := New(testKey)
	if r.LastEvent() != nil || r.IsDeleted() || r.Hash() != "" {
		t.Fatal("empty record should have no bookkeeping values")
	}
	r.SetLastEvent(7)
	r.Set(model.FieldHash, "abc")
	deleted := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.Set(model.FieldDateDeleted, deleted)

	if got := r.LastEvent(); got == nil || *got != 7 {
		t.Errorf("LastEvent() = %v, want 7", got)
	}
	if !r.IsDeleted() || !r.DateDeleted().Equal(deleted) {
		t.Errorf("DateDeleted() = %v, want %v", r.DateDeleted(), deleted)
	}
	if r.Hash() != "abc" {
		t.Errorf("Hash() = %q", r.Hash())
	}
	if testKey.String() != "meetbouten:meetbouten:1" {
		t.Errorf("Key.String() = %q", testKey.String())
	}
}

func TestRecord_CloneIsIndependent(t *testing.T) {
	r := New(testKey)
	r.Set("status", "A")
	c := r.Clone()
	c.Set("status", "B")
	if v, _ := r.Get("status"); v != "A" {
		t.Errorf("original status = %v, want A", v)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := testCodec(t)
	r := New(testKey)
	r.Set("identificatie", "1")
	r.Set("hoogte", decimal.RequireFromString("1.5"))
	r.Set("indicatie_beveiligd", true)
	r.Set("datum", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC))
	r.Set("ligt_in_buurt", map[string]any{"bronwaarde": "X"})
	r.Set(model.FieldDateDeleted, nil)
	r.SetLastEvent(12)

	data, err := codec.Encode(r)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := codec.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Key != testKey {
		t.Errorf("Key = %+v, want %+v", got.Key, testKey)
	}
	if last := got.LastEvent(); last == nil || *last != 12 {
		t.Errorf("LastEvent() = %v, want 12", last)
	}
	if v, _ := got.Get("hoogte"); !v.(decimal.Decimal).Equal(decimal.RequireFromString("1.500")) {
		t.Errorf("hoogte = %v, want 1.500", v)
	}
	if v, _ := got.Get("indicatie_beveiligd"); v != true {
		t.Errorf("indicatie_beveiligd = %v", v)
	}
	if v, ok := got.Get(model.FieldDateDeleted); !ok || v != nil {
		t.Errorf("_date_deleted = %v, %v; want explicit null", v, ok)
	}
	ref, _ := got.Get("ligt_in_buurt")
	if m, ok := ref.(map[string]any); !ok || m["bronwaarde"] != "X" {
		t.Errorf("ligt_in_buurt = %#v", ref)
	}
}

func TestCodec_Errors(t *testing.T) {
	codec := testCodec(t)

	tests := []struct {
		name    string
		rec     *Record
		wantErr error
	}{
		{
			name: "unknown attribute",
			rec: func() *Record {
				r := New(testKey)
				r.Set("onbekend", "x")
				return r
			}(),
			wantErr: ErrUnknownAttribute,
		},
		{
			name:    "unknown collection",
			rec:     New(Key{Catalogue: "meetbouten", Collection: "nope", TID: "1"}),
			wantErr: model.ErrNoSuchCollection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := codec.Encode(tt.rec); !errors.Is(err, tt.wantErr) {
				t.Errorf("Encode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := codec.Decode([]byte(`{"catalogue":"meetbouten","collection":"meetbouten","tid":"1","attributes":{"hoogte":"abc"}}`)); err == nil {
		t.Error("Decode() should reject a non-canonical decimal")
	}
}

func TestCodec_Values(t *testing.T) {
	codec := testCodec(t)
	r := New(testKey)
	r.Set("status", "A")
	r.Set("indicatie_beveiligd", false)
	r.SetLastEvent(3)

	values, err := codec.Values(r)
	if err != nil {
		t.Fatalf("Values() error = %v", err)
	}
	if values["status"] != "A" || values["indicatie_beveiligd"] != false {
		t.Errorf("Values() = %v", values)
	}
	if n, ok := values[model.FieldLastEvent].(interface{ String() string }); !ok || n.String() != "3" {
		t.Errorf("_last_event = %#v, want json number 3", values[model.FieldLastEvent])
	}
}
