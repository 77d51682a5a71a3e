// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
)

// Action is a conversion tag.
type Action string

// Known conversion actions.
const (
	ActionRename Action = "rename"
	ActionDelete Action = "delete"
	ActionAdd    Action = "add"
)

// Conversion is one column-level rewrite. Which fields are used depends on
// Action.
type Conversion struct {
	Action    Action `koanf:"action" json:"action"`
	OldColumn string `koanf:"old_column" json:"old_column,omitempty"`
	NewColumn string `koanf:"new_column" json:"new_column,omitempty"`
	Column    string `koanf:"column" json:"column,omitempty"`
	Default   any    `koanf:"default" json:"default,omitempty"`
}

// Validate checks that the fields the action needs are present. Unknown
// actions pass; they fail when applied.
func (c Conversion) Validate() error {
	switch c.Action {
	case ActionRename:
		if c.OldColumn == "" || c.NewColumn == "" {
			return fmt.Errorf("%w: rename needs old_column and new_column", ErrInvalidConversion)
		}
	case ActionDelete:
		if c.Column == "" {
			return fmt.Errorf("%w: delete needs column", ErrInvalidConversion)
		}
	case ActionAdd:
		if c.Column == "" || c.Default == nil {
			return fmt.Errorf("%w: add needs column and default", ErrInvalidConversion)
		}
	}
	return nil
}

// Migration is one version step.
type Migration struct {
	TargetVersion string       `koanf:"target_version" json:"target_version"`
	Conversions   []Conversion `koanf:"conversions" json:"conversions"`
}

// Definition is the on-disk table shape:
// catalog -> collection -> source version -> migration.
type Definition map[string]map[string]map[string]Migration

type stepKey struct {
	catalog, collection, version string
}

// Table is the immutable migration lookup.
type Table struct {
	steps map[stepKey]Migration
}

// NewTable validates def and builds a Table. Chains that loop back on
// themselves are rejected.
func NewTable(def Definition) (*Table, error) {
	t := &Table{steps: make(map[stepKey]Migration)}
	for catalog, collections := range def {
		for collection, versions := range collections {
			for version, m := range versions {
				if m.TargetVersion == "" {
					return nil, fmt.Errorf("%w: %s:%s %s has no target_version",
						ErrInvalidConversion, catalog, collection, version)
				}
				for i, c := range m.Conversions {
					if err := c.Validate(); err != nil {
						return nil, fmt.Errorf("%s:%s %s conversion %d: %w", catalog, collection, version, i, err)
					}
				}
				t.steps[stepKey{catalog, collection, version}] = m
			}
		}
	}
	if err := t.checkCycles(); err != nil {
		return nil, err
	}
	return t, nil
}

// Lookup returns the migration from version for catalog/collection.
func (t *Table) Lookup(catalog, collection, version string) (Migration, bool) {
	if t == nil {
		return Migration{}, false
	}
	m, ok := t.steps[stepKey{catalog, collection, version}]
	return m, ok
}

// Len returns the number of migration steps.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.steps)
}

func (t *Table) checkCycles() error {
	for start := range t.steps {
		seen := map[string]bool{start.version: true}
		key := start
		for {
			m, ok := t.steps[key]
			if !ok {
				break
			}
			if seen[m.TargetVersion] {
				return fmt.Errorf("%w: %s:%s cycles back to %s",
					ErrMigrationCycle, key.catalog, key.collection, m.TargetVersion)
			}
			seen[m.TargetVersion] = true
			key.version = m.TargetVersion
		}
	}
	return nil
}

// Load reads a migration table. ".json" files are parsed as JSON, others as
// YAML. Versions must be quoted in YAML.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read migrations %s: %w", path, err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	t, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("load migrations %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a migration table in "yaml" or "json" format.
func Parse(data []byte, format string) (*Table, error) {
	var def Definition
	switch format {
	case "json":
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConversion, err)
		}
	case "yaml", "yml":
		// Versions like "1.0" contain the default "." delimiter.
		k := koanf.New("/")
		if err := k.Load(rawBytes(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConversion, err)
		}
		if err := k.UnmarshalWithConf("", &def, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConversion, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidConversion, format)
	}
	return NewTable(def)
}

type rawBytes []byte

func (r rawBytes) ReadBytes() ([]byte, error) { return r, nil }

func (r rawBytes) Read() (map[string]any, error) {
	return nil, errors.New("rawBytes provider requires a parser")
}
