// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package typesystem

import (
	"math/big"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Value is an immutable typed attribute value. The zero Value is invalid;
// use Null for an explicit null.
type Value struct {
	kind Kind
	s    *string
}

// Ptr returns a pointer to s, for use with New.
func Ptr(s string) *string {
	return &s
}

// Null returns the null value of kind.
func Null(kind Kind) Value {
	return Value{kind: kind}
}

// New builds a Value from its canonical string. A nil canonical yields a null
// value. The string is validated and normalised for the kind, so values
// reloaded from storage compare equal to the ones that were stored.
func New(kind Kind, canonical *string) (Value, error) {
	if _, ok := kindNames[kind]; !ok {
		return Value{}, conversionError(kind, canonical, "invalid kind", nil)
	}
	if canonical == nil {
		return Null(kind), nil
	}
	s, err := normalise(kind, *canonical)
	if err != nil {
		return Value{}, err
	}
	return Value{kind: kind, s: s}, nil
}

// MustNew is New for values known to be valid at compile time.
func MustNew(kind Kind, canonical string) Value {
	v, err := New(kind, &canonical)
	if err != nil {
		panic(err)
	}
	return v
}

// normalise validates a canonical string and returns its normal form. A nil
// result with a nil error means the input denotes null (e.g. "nan").
func normalise(kind Kind, s string) (*string, error) {
	switch kind {
	case String:
		return &s, nil
	case Character:
		if n := len([]rune(s)); n != 1 {
			return nil, conversionError(kind, s, "expected exactly one character", nil)
		}
		return &s, nil
	case Integer, BigInteger, PKInteger:
		return normaliseInteger(kind, s)
	case Decimal:
		return normaliseDecimal(s, Options{})
	case Boolean:
		lower := strings.ToLower(s)
		if lower != "true" && lower != "false" {
			return nil, conversionError(kind, s, "boolean must be true, false or null", nil)
		}
		return &lower, nil
	case Date:
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, conversionError(kind, s, "", err)
		}
		out := formatDate(t)
		return &out, nil
	case DateTime:
		t, err := parseTime(padMicroseconds(s, DateTimeFormat), DateTimeFormat)
		if err != nil {
			return nil, conversionError(kind, s, "", err)
		}
		out := formatDateTime(t)
		return &out, nil
	case JSON, Reference, ManyReference, VeryManyReference:
		tree, err := decodeJSON(s)
		if err != nil {
			return nil, conversionError(kind, s, "invalid JSON", err)
		}
		return canonicalTree(kind, s, tree)
	case IncompleteDate:
		return incompleteDateFromAny(s)
	}
	return nil, conversionError(kind, s, "invalid kind", nil)
}

// Kind returns the value's type.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.s == nil
}

// Canonical returns the canonical string, or nil for null.
func (v Value) Canonical() *string {
	if v.s == nil {
		return nil
	}
	s := *v.s
	return &s
}

// String returns the canonical string, or "None" for null.
func (v Value) String() string {
	if v.s == nil {
		return "None"
	}
	return *v.s
}

// JSON returns the value as JSON text.
func (v Value) JSON() string {
	if v.s == nil {
		return "null"
	}
	switch {
	case v.kind.IsInteger(), v.kind == Decimal, v.kind == Boolean, v.kind.IsJSON():
		return *v.s
	}
	return quote(*v.s)
}

// ToDB returns the storage-ready form:
//
//	String, Character           string
//	Integer, PKInteger          int64
//	BigInteger                  int64, or *big.Int outside the int64 range
//	Decimal                     decimal.Decimal
//	Boolean                     bool
//	Date, DateTime              time.Time (UTC)
//	JSON-backed kinds           map[string]any / []any / scalar
func (v Value) ToDB() any {
	if v.s == nil {
		return nil
	}
	s := *v.s
	switch v.kind {
	case Integer, BigInteger, PKInteger:
		n, _ := new(big.Int).SetString(s, 10)
		if n.IsInt64() {
			return n.Int64()
		}
		return n
	case Decimal:
		d, _ := decimal.NewFromString(s)
		return d
	case Boolean:
		return s == "true"
	case Date:
		t, _ := time.Parse(time.DateOnly, s)
		return t
	case DateTime:
		t, _ := parseTime(s, DateTimeFormat)
		return t
	case JSON, Reference, ManyReference, VeryManyReference, IncompleteDate:
		tree, _ := decodeJSON(s)
		return tree
	}
	return s
}

// ToValue returns the plain-language form. It equals ToDB except for
// Decimal, which is returned as its canonical string.
func (v Value) ToValue() any {
	if v.s == nil {
		return nil
	}
	if v.kind == Decimal {
		return *v.s
	}
	return v.ToDB()
}

// Equal compares two values by canonical form. Null values are equal to each
// other. Reference kinds ignore bookkeeping keys (see ReferenceExcludedKeys).
func (v Value) Equal(other Value) bool {
	if v.s == nil || other.s == nil {
		return v.s == nil && other.s == nil
	}
	if v.kind.IsReference() && other.kind.IsReference() {
		return reflect.DeepEqual(filterReferences(v), filterReferences(other))
	}
	return *v.s == *other.s
}
