// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package migration

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr error
	}{
		{
			name:    "rename without new column",
			def:     single("1", Migration{TargetVersion: "2", Conversions: []Conversion{{Action: ActionRename, OldColumn: "a"}}}),
			wantErr: ErrInvalidConversion,
		},
		{
			name:    "delete without column",
			def:     single("1", Migration{TargetVersion: "2", Conversions: []Conversion{{Action: ActionDelete}}}),
			wantErr: ErrInvalidConversion,
		},
		{
			name:    "add without default",
			def:     single("1", Migration{TargetVersion: "2", Conversions: []Conversion{{Action: ActionAdd, Column: "a"}}}),
			wantErr: ErrInvalidConversion,
		},
		{
			name:    "missing target",
			def:     single("1", Migration{}),
			wantErr: ErrInvalidConversion,
		},
		{
			name: "cycle",
			def: Definition{"cat": {"coll": {
				"1": {TargetVersion: "2"},
				"2": {TargetVersion: "1"},
			}}},
			wantErr: ErrMigrationCycle,
		},
		{
			name:    "self loop",
			def:     single("1", Migration{TargetVersion: "1"}),
			wantErr: ErrMigrationCycle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.def)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewTable() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_YAML(t *testing.T) {
	doc := `
meetbouten:
  meetbouten:
    "1.0":
      target_version: "1.1"
      conversions:
        - action: rename
          old_column: a
          new_column: b
        - action: add
          column: status
          default: A
`
	path := filepath.Join(t.TempDir(), "migrations.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	m, ok := table.Lookup("meetbouten", "meetbouten", "1.0")
	if !ok {
		t.Fatal("migration 1.0 not found")
	}
	if m.TargetVersion != "1.1" || len(m.Conversions) != 2 {
		t.Errorf("migration = %+v", m)
	}
	if m.Conversions[1].Default != "A" {
		t.Errorf("default = %v", m.Conversions[1].Default)
	}
}

func TestParse_JSON(t *testing.T) {
	doc := `{"gebieden": {"buurten": {"0.1": {"target_version": "0.2", "conversions": [
		{"action": "delete", "column": "oud"}]}}}}`
	table, err := Parse([]byte(doc), "json")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}
	if _, ok := table.Lookup("gebieden", "buurten", "0.2"); ok {
		t.Error("unexpected migration from 0.2")
	}
	if _, err := Parse([]byte(`{`), "json"); !errors.Is(err, ErrInvalidConversion) {
		t.Errorf("error = %v, want ErrInvalidConversion", err)
	}
}
