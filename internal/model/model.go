// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/chronicle/internal/typesystem"
)

// Lookup errors.
var (
	ErrNoSuchCatalog    = errors.New("no such catalog")
	ErrNoSuchCollection = errors.New("no such collection")
	ErrInvalidReference = errors.New("invalid reference")
	ErrInvalidModel     = errors.New("invalid model definition")
)

// Field is one attribute of a collection with its resolved type.
type Field struct {
	Name        string
	Type        string
	Kind        typesystem.Kind
	Options     typesystem.Options
	Description string
	// Config is the raw field definition, kept for FromValueWithConfig.
	Config map[string]any
}

// Convert turns a raw value into a typed value using the field's declared
// type and options.
func (f *Field) Convert(raw any) (typesystem.Value, error) {
	return typesystem.FromValue(f.Kind, raw, f.Options)
}

// Collection is an entity type within a catalog.
type Collection struct {
	Name         string
	CatalogName  string
	Abbreviation string
	Version      string
	Description  string
	EntityID     string
	HasStates    bool

	attributes map[string]*Field
	fields     map[string]*Field
	allFields  map[string]*Field
}

// Reference returns "catalog:collection".
func (c *Collection) Reference() string {
	return c.CatalogName + ":" + c.Name
}

// TableName returns the lower-cased "catalog_collection" table name.
func (c *Collection) TableName() string {
	return TableName(c.CatalogName, c.Name)
}

// MatchesAbbreviation compares case-insensitively.
func (c *Collection) MatchesAbbreviation(abbr string) bool {
	return strings.EqualFold(abbr, c.Abbreviation)
}

// Attribute returns a declared attribute.
func (c *Collection) Attribute(name string) (*Field, bool) {
	f, ok := c.attributes[name]
	return f, ok
}

// Field looks a name up among all fields, bookkeeping attributes included.
func (c *Collection) Field(name string) (*Field, bool) {
	f, ok := c.allFields[name]
	return f, ok
}

// AttributeNames returns the declared attribute names, sorted.
func (c *Collection) AttributeNames() []string {
	return sortedNames(c.attributes)
}

// FieldNames returns attributes plus state fields, sorted.
func (c *Collection) FieldNames() []string {
	return sortedNames(c.fields)
}

// AllFieldNames returns every field name, sorted.
func (c *Collection) AllFieldNames() []string {
	return sortedNames(c.allFields)
}

// References returns the attributes that point at other collections.
func (c *Collection) References() []*Field {
	var out []*Field
	for _, name := range c.AttributeNames() {
		if f := c.attributes[name]; f.Kind.IsReference() {
			out = append(out, f)
		}
	}
	return out
}

// VeryManyReferences returns the VeryManyReference attributes.
func (c *Collection) VeryManyReferences() []*Field {
	var out []*Field
	for _, f := range c.References() {
		if f.Kind == typesystem.VeryManyReference {
			out = append(out, f)
		}
	}
	return out
}

// SourceID computes the identifier of an entity within its source. For
// collections with states the sequence number is appended.
func (c *Collection) SourceID(entity map[string]any, entityIDField, sequenceField string) (string, error) {
	if entityIDField == "" {
		entityIDField = c.EntityID
	}
	id, ok := entity[entityIDField]
	if !ok || id == nil {
		return "", fmt.Errorf("entity has no value for id field %q", entityIDField)
	}
	sourceID := fmt.Sprint(id)
	if !c.HasStates {
		return sourceID, nil
	}
	if sequenceField == "" {
		sequenceField = FieldSequenceNumber
	}
	seq, ok := entity[sequenceField]
	if !ok {
		return "", fmt.Errorf("entity has no value for sequence field %q", sequenceField)
	}
	return fmt.Sprintf("%s.%v", sourceID, seq), nil
}

// Catalog groups collections.
type Catalog struct {
	Name         string
	Abbreviation string
	Version      string
	Description  string

	collections map[string]*Collection
}

// Collection returns the named collection.
func (c *Catalog) Collection(name string) (*Collection, bool) {
	coll, ok := c.collections[name]
	return coll, ok
}

// CollectionNames returns the collection names, sorted.
func (c *Catalog) CollectionNames() []string {
	names := make([]string, 0, len(c.collections))
	for n := range c.collections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CollectionByAbbreviation finds a collection by abbreviation.
func (c *Catalog) CollectionByAbbreviation(abbr string) (*Collection, bool) {
	for _, name := range c.CollectionNames() {
		if coll := c.collections[name]; coll.MatchesAbbreviation(abbr) {
			return coll, true
		}
	}
	return nil, false
}

// Model is the complete, immutable schema.
type Model struct {
	catalogs map[string]*Catalog
}

// Catalog returns the named catalog.
func (m *Model) Catalog(name string) (*Catalog, error) {
	cat, ok := m.catalogs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchCatalog, name)
	}
	return cat, nil
}

// CatalogNames returns the catalog names, sorted.
func (m *Model) CatalogNames() []string {
	names := make([]string, 0, len(m.catalogs))
	for n := range m.catalogs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Collection returns the named collection of the named catalog.
func (m *Model) Collection(catalog, collection string) (*Collection, error) {
	cat, err := m.Catalog(catalog)
	if err != nil {
		return nil, err
	}
	coll, ok := cat.Collection(collection)
	if !ok {
		return nil, fmt.Errorf("%w: %s:%s", ErrNoSuchCollection, catalog, collection)
	}
	return coll, nil
}

// CollectionFromRef resolves a "catalog:collection" reference.
func (m *Model) CollectionFromRef(ref string) (*Collection, error) {
	catalog, collection, err := SplitRef(ref)
	if err != nil {
		return nil, err
	}
	return m.Collection(catalog, collection)
}

// CollectionByAbbreviations resolves catalog and collection abbreviations.
func (m *Model) CollectionByAbbreviations(catalogAbbr, collectionAbbr string) (*Collection, error) {
	for _, name := range m.CatalogNames() {
		cat := m.catalogs[name]
		if !strings.EqualFold(cat.Abbreviation, catalogAbbr) {
			continue
		}
		if coll, ok := cat.CollectionByAbbreviation(collectionAbbr); ok {
			return coll, nil
		}
		return nil, fmt.Errorf("%w: %s in %s", ErrNoSuchCollection, collectionAbbr, name)
	}
	return nil, fmt.Errorf("%w: abbreviation %s", ErrNoSuchCatalog, catalogAbbr)
}

// HasStates reports whether the collection exists and has states.
func (m *Model) HasStates(catalog, collection string) bool {
	coll, err := m.Collection(catalog, collection)
	return err == nil && coll.HasStates
}

// TableNames returns the table name of every collection, sorted.
func (m *Model) TableNames() []string {
	var names []string
	for _, cat := range m.catalogs {
		for _, coll := range cat.collections {
			names = append(names, coll.TableName())
		}
	}
	sort.Strings(names)
	return names
}

// TableName returns the lower-cased "catalog_collection" table name.
func TableName(catalog, collection string) string {
	return strings.ToLower(catalog + "_" + collection)
}

// SplitRef splits "catalog:collection".
func SplitRef(ref string) (catalog, collection string, err error) {
	parts := strings.Split(ref, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	return parts[0], parts[1], nil
}

func sortedNames(m map[string]*Field) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
