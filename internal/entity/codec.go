// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/chronicle/internal/model"
	"github.com/tomtom215/chronicle/internal/typesystem"
)

// ErrUnknownAttribute is returned when a record holds an attribute its
// collection does not define.
var ErrUnknownAttribute = errors.New("attribute not in collection")

// Document is the persisted form of a record: every attribute as its
// canonical string, or null.
type Document struct {
	Key
	Attributes map[string]*string `json:"attributes"`
}

// Codec converts records to and from Documents using the model's field types.
type Codec struct {
	model *model.Model
}

// NewCodec returns a Codec for m.
func NewCodec(m *model.Model) *Codec {
	return &Codec{model: m}
}

// Model returns the schema the codec resolves fields against.
func (c *Codec) Model() *model.Model {
	return c.model
}

// ToDocument renders every attribute in canonical form.
func (c *Codec) ToDocument(r *Record) (*Document, error) {
	coll, err := c.model.Collection(r.Key.Catalogue, r.Key.Collection)
	if err != nil {
		return nil, err
	}
	doc := &Document{Key: r.Key, Attributes: make(map[string]*string, len(r.attrs))}
	for name, value := range r.attrs {
		field, ok := coll.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, coll.Reference(), name)
		}
		v, err := typesystem.FromValue(field.Kind, value, typesystem.Options{})
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		doc.Attributes[name] = v.Canonical()
	}
	return doc, nil
}

// FromDocument rebuilds a record, validating every canonical string.
func (c *Codec) FromDocument(doc *Document) (*Record, error) {
	coll, err := c.model.Collection(doc.Catalogue, doc.Collection)
	if err != nil {
		return nil, err
	}
	r := New(doc.Key)
	for name, canonical := range doc.Attributes {
		field, ok := coll.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, coll.Reference(), name)
		}
		v, err := typesystem.New(field.Kind, canonical)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		r.attrs[name] = v.ToDB()
	}
	return r, nil
}

// Encode serialises a record as JSON.
func (c *Codec) Encode(r *Record) ([]byte, error) {
	doc, err := c.ToDocument(r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Decode parses a record produced by Encode.
func (c *Codec) Decode(data []byte) (*Record, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode entity: %w", err)
	}
	return c.FromDocument(&doc)
}

// Values returns the record's attributes as JSON-domain values for API
// output, keyed by name.
func (c *Codec) Values(r *Record) (map[string]any, error) {
	doc, err := c.ToDocument(r)
	if err != nil {
		return nil, err
	}
	coll, _ := c.model.Collection(r.Key.Catalogue, r.Key.Collection)
	out := make(map[string]any, len(doc.Attributes))
	for name, canonical := range doc.Attributes {
		field, _ := coll.Field(name)
		v, err := typesystem.New(field.Kind, canonical)
		if err != nil {
			return nil, err
		}
		var node any
		dec := json.NewDecoder(strings.NewReader(v.JSON()))
		dec.UseNumber()
		if err := dec.Decode(&node); err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}
		out[name] = node
	}
	return out, nil
}
