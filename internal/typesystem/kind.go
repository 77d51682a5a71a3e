// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package typesystem

import (
	"fmt"
	"strings"
)

// Kind identifies an attribute type.
type Kind int

const (
	// Invalid is the zero Kind and is never produced by ParseKind.
	Invalid Kind = iota
	String
	Character
	Integer
	BigInteger
	PKInteger
	Decimal
	Boolean
	Date
	DateTime
	JSON
	Reference
	ManyReference
	VeryManyReference
	IncompleteDate
)

// typePrefix is the namespace used by model type names.
const typePrefix = "GOB."

var kindNames = map[Kind]string{
	String:            "String",
	Character:         "Character",
	Integer:           "Integer",
	BigInteger:        "BigInteger",
	PKInteger:         "PKInteger",
	Decimal:           "Decimal",
	Boolean:           "Boolean",
	Date:              "Date",
	DateTime:          "DateTime",
	JSON:              "JSON",
	Reference:         "Reference",
	ManyReference:     "ManyReference",
	VeryManyReference: "VeryManyReference",
	IncompleteDate:    "IncompleteDate",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

// String returns the bare type name, e.g. "Decimal".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// TypeName returns the qualified model type name, e.g. "GOB.Decimal".
func (k Kind) TypeName() string {
	return typePrefix + k.String()
}

// IsInteger reports whether the kind is one of the integer variants.
func (k Kind) IsInteger() bool {
	return k == Integer || k == BigInteger || k == PKInteger
}

// IsJSON reports whether the kind stores a JSON document as its canonical form.
func (k Kind) IsJSON() bool {
	switch k {
	case JSON, Reference, ManyReference, VeryManyReference, IncompleteDate:
		return true
	}
	return false
}

// IsReference reports whether the kind points at other entities.
func (k Kind) IsReference() bool {
	return k == Reference || k == ManyReference || k == VeryManyReference
}

// IsManyReference reports whether the kind holds a list of references.
func (k Kind) IsManyReference() bool {
	return k == ManyReference || k == VeryManyReference
}

// ParseKind resolves a model type name to a Kind.
func ParseKind(name string) (Kind, error) {
	bare := strings.TrimPrefix(name, typePrefix)
	if strings.HasPrefix(bare, "Geo.") {
		return String, nil
	}
	if k, ok := kindsByName[bare]; ok {
		return k, nil
	}
	return Invalid, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := String; k <= IncompleteDate; k++ {
		out = append(out, k)
	}
	return out
}
