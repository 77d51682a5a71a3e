// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package typesystem

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// nanLiteral is the textual NaN that numeric kinds read as null.
const nanLiteral = "nan"

// ReferenceExcludedKeys are the reference keys ignored by Equal. Only the
// business key (bronwaarde) and other source fields take part in comparison.
var ReferenceExcludedKeys = []string{"id", "volgnummer"}

var booleanFormats = map[string]bool{"YN": true, "JN": true, "10": true}

var incompleteDatePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// FromValue converts heterogeneous raw input to a Value of kind. A nil raw
// value always yields the null value.
func FromValue(kind Kind, raw any, opts Options) (Value, error) {
	if _, ok := kindNames[kind]; !ok {
		return Value{}, conversionError(kind, raw, "invalid kind", nil)
	}
	if raw == nil {
		return Null(kind), nil
	}
	if isNaN(raw) && (kind == String || kind == Decimal || kind.IsInteger()) {
		return Null(kind), nil
	}

	var (
		s   *string
		err error
	)
	switch kind {
	case String:
		str := stringify(raw)
		s = &str
	case Character:
		s, err = normalise(kind, stringify(raw))
	case Integer, BigInteger, PKInteger:
		s, err = integerFromValue(kind, raw)
	case Decimal:
		s, err = decimalFromValue(raw, opts)
	case Boolean:
		s, err = booleanFromValue(raw, opts)
	case Date:
		s, err = dateFromValue(raw, opts)
	case DateTime:
		s, err = dateTimeFromValue(raw, opts)
	case JSON, Reference, ManyReference, VeryManyReference:
		s, err = jsonFromValue(kind, raw, opts)
	case IncompleteDate:
		s, err = incompleteDateFromAny(raw)
	}
	if err != nil {
		return Value{}, err
	}
	return Value{kind: kind, s: s}, nil
}

// FromValueWithConfig converts raw using the conversion hints of a model field
// definition. Explicit opts take precedence over the field's hints.
func FromValueWithConfig(kind Kind, raw any, fieldConfig map[string]any, opts Options) (Value, error) {
	base, err := OptionsFromConfig(fieldConfig)
	if err != nil {
		return Value{}, conversionError(kind, raw, "invalid field configuration", err)
	}
	return FromValue(kind, raw, opts.Merge(base))
}

func isNaN(raw any) bool {
	switch f := raw.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}
	return false
}

// stringify renders a raw value the way it is stored in a String attribute.
func stringify(raw any) string {
	switch t := raw.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", t)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t)
	case float64:
		return formatFloat(t, 64)
	case float32:
		return formatFloat(float64(t), 32)
	case json.Number:
		return t.String()
	case decimal.Decimal:
		return decimalString(t)
	case *big.Int:
		return t.String()
	case time.Time:
		return formatDateTime(t)
	case map[string]any, []any:
		if s, err := CanonicalJSON(t); err == nil {
			return s
		}
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(raw)
}

// formatFloat renders f like Python's str(float): the shortest digits that
// round-trip, a ".0" suffix on whole numbers, and exponent notation outside
// [1e-4, 1e16). So 123.0 is "123.0", not "123".
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, bits)
	}
	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func integerFromValue(kind Kind, raw any) (*string, error) {
	switch raw.(type) {
	case bool, float32, float64, decimal.Decimal:
		return nil, conversionError(kind, raw, "only integral input is accepted", nil)
	}
	return normaliseInteger(kind, stringify(raw))
}

func normaliseInteger(kind Kind, s string) (*string, error) {
	if s == nanLiteral {
		return nil, nil
	}
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, conversionError(kind, s, "", nil)
	}
	if kind != BigInteger && !n.IsInt64() {
		return nil, conversionError(kind, s, "out of 64-bit range", nil)
	}
	out := n.String()
	return &out, nil
}

func decimalFromValue(raw any, opts Options) (*string, error) {
	var s string
	if d, ok := raw.(decimal.Decimal); ok {
		s = decimalString(d)
	} else {
		s = strings.TrimSpace(stringify(raw))
		if sep := opts.DecimalSeparator; sep != "" && sep != "." {
			s = strings.ReplaceAll(s, sep, ".")
		}
	}
	return normaliseDecimal(s, opts)
}

func normaliseDecimal(s string, opts Options) (*string, error) {
	if s == nanLiteral {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, conversionError(Decimal, s, "", err)
	}
	var out string
	if opts.Precision != nil {
		out = d.StringFixedBank(int32(*opts.Precision))
	} else {
		out = decimalString(d)
	}
	return &out, nil
}

// decimalString renders d keeping every fractional digit it was given,
// trailing zeros included.
func decimalString(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

func booleanFromValue(raw any, opts Options) (*string, error) {
	if opts.Format != "" {
		if !booleanFormats[opts.Format] {
			return nil, conversionError(Boolean, raw, fmt.Sprintf("unknown boolean format %q", opts.Format), nil)
		}
		var out string
		switch stringify(raw) {
		case opts.Format[:1]:
			out = "true"
		case opts.Format[1:]:
			out = "false"
		default:
			return nil, nil
		}
		return &out, nil
	}
	return normalise(Boolean, stringify(raw))
}

func dateFromValue(raw any, opts Options) (*string, error) {
	if t, ok := raw.(time.Time); ok {
		out := formatDate(t)
		return &out, nil
	}
	format := opts.Format
	if format == "" {
		format = DateFormat
	}
	s := stringify(raw)
	t, err := parseTime(s, format)
	if err != nil {
		return nil, conversionError(Date, s, "", err)
	}
	out := formatDate(t)
	return &out, nil
}

func dateTimeFromValue(raw any, opts Options) (*string, error) {
	if t, ok := raw.(time.Time); ok {
		out := formatDateTime(t)
		return &out, nil
	}
	format := opts.Format
	if format == "" {
		format = DateTimeFormat
	}
	s := stringify(raw)
	if _, isString := raw.(string); isString {
		s = padMicroseconds(s, format)
	}
	t, err := parseTime(s, format)
	if err != nil {
		return nil, conversionError(DateTime, s, "", err)
	}
	out := formatDateTime(t)
	return &out, nil
}

// padMicroseconds appends ".000000" to a second-precision timestamp when the
// format expects fractional seconds.
func padMicroseconds(s, format string) string {
	if strings.Contains(format, ".%f") && len(s) == dateTimeWithoutFraction {
		return s + ".000000"
	}
	return s
}

func jsonFromValue(kind Kind, raw any, opts Options) (*string, error) {
	var (
		tree any
		err  error
	)
	switch t := raw.(type) {
	case string:
		tree, err = decodeJSON(t)
	case []byte:
		tree, err = decodeJSON(string(t))
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number, decimal.Decimal:
		tree, err = decodeJSON(stringify(t))
	default:
		tree, err = jsonTree(raw)
	}
	if err != nil {
		return nil, conversionError(kind, raw, "invalid JSON", err)
	}
	if obj, ok := tree.(map[string]any); ok && len(opts.Attributes) > 0 {
		if err := typeNestedAttributes(obj, opts.Attributes); err != nil {
			return nil, conversionError(kind, raw, "", err)
		}
	}
	return canonicalTree(kind, raw, tree)
}

// typeNestedAttributes converts the declared keys of a JSON object, at any
// depth, through their own types.
func typeNestedAttributes(obj map[string]any, attrs map[string]Attribute) error {
	for key, val := range obj {
		if nested, ok := val.(map[string]any); ok {
			if err := typeNestedAttributes(nested, attrs); err != nil {
				return err
			}
			continue
		}
		attr, ok := attrs[key]
		if !ok {
			continue
		}
		v, err := FromValue(attr.Kind, val, attr.Options)
		if err != nil {
			return fmt.Errorf("attribute %s: %w", key, err)
		}
		node, err := decodeJSON(v.JSON())
		if err != nil {
			return fmt.Errorf("attribute %s: %w", key, err)
		}
		obj[key] = node
	}
	return nil
}

func canonicalTree(kind Kind, raw, tree any) (*string, error) {
	switch kind {
	case Reference:
		if _, ok := tree.(map[string]any); !ok && tree != nil {
			return nil, conversionError(kind, raw, "reference must be a JSON object", nil)
		}
	case ManyReference, VeryManyReference:
		list, ok := tree.([]any)
		if !ok && tree != nil {
			return nil, conversionError(kind, raw, "references must be a JSON array", nil)
		}
		for _, item := range list {
			if _, ok := item.(map[string]any); !ok {
				return nil, conversionError(kind, raw, "every reference must be a JSON object", nil)
			}
		}
	}
	out, err := CanonicalJSON(tree)
	if err != nil {
		return nil, conversionError(kind, raw, "", err)
	}
	return &out, nil
}

// incompleteDateFromAny accepts "yyyy-mm-dd" with all-zero parts for unknown
// components, a JSON object text, or an object with year, month and day keys.
func incompleteDateFromAny(raw any) (*string, error) {
	var parts map[string]any
	switch t := raw.(type) {
	case string:
		if m := incompleteDatePattern.FindStringSubmatch(t); m != nil {
			parts = map[string]any{
				"year":  datePart(m[1]),
				"month": datePart(m[2]),
				"day":   datePart(m[3]),
			}
			break
		}
		tree, err := decodeJSON(t)
		if err != nil {
			return nil, conversionError(IncompleteDate, raw, "could not decode value", err)
		}
		obj, ok := tree.(map[string]any)
		if !ok {
			return nil, conversionError(IncompleteDate, raw, "expected an object", nil)
		}
		parts = obj
	default:
		tree, err := jsonTree(raw)
		if err != nil {
			return nil, conversionError(IncompleteDate, raw, "", err)
		}
		obj, ok := tree.(map[string]any)
		if !ok {
			return nil, conversionError(IncompleteDate, raw, "expected an object", nil)
		}
		parts = obj
	}

	var ymd [3]*int64
	for i, key := range []string{"year", "month", "day"} {
		val, present := parts[key]
		if !present {
			return nil, conversionError(IncompleteDate, raw, "expecting keys 'year', 'month' and 'day'", nil)
		}
		n, err := optionalInt(val)
		if err != nil {
			return nil, conversionError(IncompleteDate, raw, key, err)
		}
		ymd[i] = n
	}

	doc := map[string]any{
		"year":  nullableNumber(ymd[0]),
		"month": nullableNumber(ymd[1]),
		"day":   nullableNumber(ymd[2]),
		"formatted": fmt.Sprintf("%04d-%02d-%02d",
			orZero(ymd[0]), orZero(ymd[1]), orZero(ymd[2])),
	}
	out, err := CanonicalJSON(doc)
	if err != nil {
		return nil, conversionError(IncompleteDate, raw, "", err)
	}
	return &out, nil
}

// datePart maps an all-zero component to unknown.
func datePart(s string) any {
	n, _ := strconv.ParseInt(s, 10, 64)
	if n == 0 {
		return nil
	}
	return n
}

func optionalInt(v any) (*int64, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case int64:
		return &t, nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return nil, err
		}
		return &n, nil
	}
	return nil, fmt.Errorf("expected an integer, got %T", v)
}

func nullableNumber(n *int64) any {
	if n == nil {
		return nil
	}
	return json.Number(strconv.FormatInt(*n, 10))
}

func orZero(n *int64) int64 {
	if n == nil {
		return 0
	}
	return *n
}

// filterReferences returns the reference document without excluded keys.
func filterReferences(v Value) any {
	tree, _ := decodeJSON(*v.s)
	switch t := tree.(type) {
	case map[string]any:
		return filterReference(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			if obj, ok := item.(map[string]any); ok {
				out[i] = filterReference(obj)
			} else {
				out[i] = item
			}
		}
		return out
	}
	return tree
}

func filterReference(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	for _, k := range ReferenceExcludedKeys {
		delete(out, k)
	}
	return out
}
