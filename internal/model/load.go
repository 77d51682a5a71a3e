// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/chronicle/internal/typesystem"
)

// Definition is the on-disk shape of a model file. Versions must be quoted
// in YAML so "1.0" is not read as a float.
type Definition struct {
	Catalogs map[string]CatalogDefinition `koanf:"catalogs" json:"catalogs"`
}

// CatalogDefinition describes one catalog.
type CatalogDefinition struct {
	Abbreviation string                          `koanf:"abbreviation" json:"abbreviation"`
	Version      string                          `koanf:"version" json:"version"`
	Description  string                          `koanf:"description" json:"description"`
	Collections  map[string]CollectionDefinition `koanf:"collections" json:"collections"`
}

// CollectionDefinition describes one collection. Attribute definitions are
// free-form: "type" is required, other keys become conversion options.
type CollectionDefinition struct {
	Abbreviation string                    `koanf:"abbreviation" json:"abbreviation"`
	Version      string                    `koanf:"version" json:"version"`
	Description  string                    `koanf:"description" json:"description"`
	EntityID     string                    `koanf:"entity_id" json:"entity_id"`
	HasStates    bool                      `koanf:"has_states" json:"has_states"`
	Attributes   map[string]map[string]any `koanf:"attributes" json:"attributes"`
}

// Load reads a model file. The format follows the extension: .json is parsed
// as JSON, everything else as YAML.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	m, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a model document in "yaml" or "json" format.
func Parse(data []byte, format string) (*Model, error) {
	var def Definition
	switch format {
	case "json":
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
		}
	case "yaml", "yml":
		k := koanf.New(".")
		if err := k.Load(rawBytes(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
		}
		if err := k.UnmarshalWithConf("", &def, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidModel, format)
	}
	return Build(def)
}

// Build resolves every attribute type and assembles the Model.
func Build(def Definition) (*Model, error) {
	m := &Model{catalogs: make(map[string]*Catalog, len(def.Catalogs))}
	for catName, catDef := range def.Catalogs {
		cat := &Catalog{
			Name:         catName,
			Abbreviation: strings.ToUpper(catDef.Abbreviation),
			Version:      catDef.Version,
			Description:  catDef.Description,
			collections:  make(map[string]*Collection, len(catDef.Collections)),
		}
		for collName, collDef := range catDef.Collections {
			coll, err := buildCollection(catName, collName, collDef)
			if err != nil {
				return nil, err
			}
			cat.collections[collName] = coll
		}
		m.catalogs[catName] = cat
	}
	return m, nil
}

func buildCollection(catalog, name string, def CollectionDefinition) (*Collection, error) {
	if def.Version == "" {
		return nil, fmt.Errorf("%w: %s:%s has no version", ErrInvalidModel, catalog, name)
	}
	coll := &Collection{
		Name:         name,
		CatalogName:  catalog,
		Abbreviation: strings.ToUpper(def.Abbreviation),
		Version:      def.Version,
		Description:  def.Description,
		EntityID:     def.EntityID,
		HasStates:    def.HasStates,
		attributes:   make(map[string]*Field, len(def.Attributes)),
	}

	for attrName, cfg := range def.Attributes {
		if IsMetadata(attrName) {
			return nil, fmt.Errorf("%w: %s:%s redefines bookkeeping attribute %s",
				ErrInvalidModel, catalog, name, attrName)
		}
		attr, err := typesystem.AttributeFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%s.%s: %v", ErrInvalidModel, catalog, name, attrName, err)
		}
		typeName, _ := cfg["type"].(string)
		description, _ := cfg["description"].(string)
		coll.attributes[attrName] = &Field{
			Name:        attrName,
			Type:        typeName,
			Kind:        attr.Kind,
			Options:     attr.Options,
			Description: description,
			Config:      cfg,
		}
	}

	coll.fields = make(map[string]*Field, len(coll.attributes)+len(stateFields))
	if coll.HasStates {
		for n, k := range stateFields {
			coll.fields[n] = builtinField(n, k)
		}
	}
	for n, f := range coll.attributes {
		coll.fields[n] = f
	}

	coll.allFields = make(map[string]*Field, len(coll.fields)+len(metadataFields))
	for n, f := range coll.fields {
		coll.allFields[n] = f
	}
	for n, k := range metadataFields {
		coll.allFields[n] = builtinField(n, k)
	}
	return coll, nil
}

func builtinField(name string, kind typesystem.Kind) *Field {
	return &Field{Name: name, Type: kind.TypeName(), Kind: kind}
}

// rawBytes is a koanf.Provider over an in-memory document.
type rawBytes []byte

func (r rawBytes) ReadBytes() ([]byte, error) {
	return r, nil
}

func (r rawBytes) Read() (map[string]any, error) {
	return nil, errors.New("rawBytes provider requires a parser")
}
