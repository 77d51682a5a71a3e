// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package events

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/chronicle/internal/model"
	"github.com/tomtom215/chronicle/internal/typesystem"
)

// Diff compares new source data with an entity's current state and returns
// the modifications a producer should put in a MODIFY event. Values are
// compared as typed values, so "1.50" and 1.5 on a Decimal field differ but
// reference ids are ignored. Bookkeeping attributes are skipped.
func Diff(entity Entity, coll *model.Collection, data map[string]any) ([]Modification, error) {
	names := make([]string, 0, len(data))
	for name := range data {
		if model.IsMetadata(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var mods []Modification
	for _, name := range names {
		field, ok := coll.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no attribute %q", ErrUnknownAttribute, coll.Reference(), name)
		}
		newValue, err := field.Convert(data[name])
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		current, _ := entity.Get(name)
		oldValue, err := typesystem.FromValue(field.Kind, current, typesystem.Options{})
		if err != nil {
			return nil, fmt.Errorf("attribute %s (stored): %w", name, err)
		}
		if oldValue.Equal(newValue) {
			continue
		}
		mods = append(mods, Modification{
			Key:      name,
			OldValue: jsonDomain(oldValue),
			NewValue: jsonDomain(newValue),
		})
	}
	return mods, nil
}

// ContentHash fingerprints source data: the MD5 of its canonical JSON.
func ContentHash(data map[string]any) (string, error) {
	canonical, err := typesystem.CanonicalJSON(data)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	sum := md5.Sum([]byte(canonical)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:]), nil
}

// jsonDomain returns the value as it appears in an event payload.
func jsonDomain(v typesystem.Value) any {
	var out any
	dec := json.NewDecoder(strings.NewReader(v.JSON()))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return v.String()
	}
	return out
}
