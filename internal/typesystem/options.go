// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package typesystem

import (
	"fmt"
	"strconv"
)

// Options carries the conversion hints recognised by FromValue.
// The zero value means "no hints".
type Options struct {
	// Format is a strftime-style pattern for Date and DateTime, or one of
	// "YN", "JN", "10" for Boolean.
	Format string

	// Precision fixes the number of fractional digits of a Decimal.
	Precision *int

	// DecimalSeparator is substituted by "." before a Decimal is parsed.
	DecimalSeparator string

	// Attributes types the nested keys of a JSON object.
	Attributes map[string]Attribute
}

// Attribute is the declared type of a nested JSON key.
type Attribute struct {
	Kind    Kind
	Options Options
}

// WithPrecision returns a copy of o with Precision set to p.
func (o Options) WithPrecision(p int) Options {
	o.Precision = &p
	return o
}

// Merge returns o with every empty field filled from base.
func (o Options) Merge(base Options) Options {
	if o.Format == "" {
		o.Format = base.Format
	}
	if o.Precision == nil {
		o.Precision = base.Precision
	}
	if o.DecimalSeparator == "" {
		o.DecimalSeparator = base.DecimalSeparator
	}
	if o.Attributes == nil {
		o.Attributes = base.Attributes
	}
	return o
}

// OptionsFromConfig extracts Options from a model field definition such as
// {"type": "GOB.Decimal", "precision": 2, "description": "..."}.
// Keys that are not conversion hints are ignored.
func OptionsFromConfig(cfg map[string]any) (Options, error) {
	var opts Options
	if cfg == nil {
		return opts, nil
	}
	if f, ok := cfg["format"]; ok && f != nil {
		s, ok := f.(string)
		if !ok {
			return opts, fmt.Errorf("format must be a string, got %T", f)
		}
		opts.Format = s
	}
	if sep, ok := cfg["decimal_separator"]; ok && sep != nil {
		s, ok := sep.(string)
		if !ok {
			return opts, fmt.Errorf("decimal_separator must be a string, got %T", sep)
		}
		opts.DecimalSeparator = s
	}
	if p, ok := cfg["precision"]; ok && p != nil {
		n, err := toInt(p)
		if err != nil {
			return opts, fmt.Errorf("precision: %w", err)
		}
		if n < 0 {
			return opts, fmt.Errorf("precision must not be negative, got %d", n)
		}
		opts.Precision = &n
	}
	if a, ok := cfg["attributes"]; ok && a != nil {
		attrs, err := attributesFromConfig(a)
		if err != nil {
			return opts, fmt.Errorf("attributes: %w", err)
		}
		opts.Attributes = attrs
	}
	return opts, nil
}

// AttributeFromConfig resolves a field definition carrying a "type" key.
func AttributeFromConfig(cfg map[string]any) (Attribute, error) {
	typeName, _ := cfg["type"].(string)
	kind, err := ParseKind(typeName)
	if err != nil {
		return Attribute{}, err
	}
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return Attribute{}, err
	}
	return Attribute{Kind: kind, Options: opts}, nil
}

func attributesFromConfig(raw any) (map[string]Attribute, error) {
	m, ok := toStringMap(raw)
	if !ok {
		return nil, fmt.Errorf("expected a mapping, got %T", raw)
	}
	out := make(map[string]Attribute, len(m))
	for name, def := range m {
		defMap, ok := toStringMap(def)
		if !ok {
			return nil, fmt.Errorf("%s: expected a mapping, got %T", name, def)
		}
		attr, err := AttributeFromConfig(defMap)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = attr
	}
	return out, nil
}

// toStringMap accepts the map shapes produced by the JSON and YAML decoders.
func toStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not a whole number", n)
		}
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	case interface{ Int64() (int64, error) }:
		i, err := n.Int64()
		return int(i), err
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}
