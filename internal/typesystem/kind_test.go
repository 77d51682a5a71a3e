// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package typesystem

import (
	"errors"
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"GOB.String", String, false},
		{"String", String, false},
		{"GOB.Decimal", Decimal, false},
		{"GOB.IncompleteDate", IncompleteDate, false},
		{"GOB.VeryManyReference", VeryManyReference, false},
		{"GOB.Geo.Point", String, false},
		{"GOB.Geo.Polygon", String, false},
		{"GOB.Unknown", Invalid, true},
		{"", Invalid, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnknownType) {
				t.Errorf("error %v does not match ErrUnknownType", err)
			}
			if got != tt.want {
				t.Errorf("ParseKind() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestKind_TypeNameRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.TypeName())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %s, %v", k.TypeName(), got, err)
		}
	}
}

func TestKind_Predicates(t *testing.T) {
	if !BigInteger.IsInteger() || Decimal.IsInteger() {
		t.Error("IsInteger mismatch")
	}
	if !IncompleteDate.IsJSON() || Date.IsJSON() {
		t.Error("IsJSON mismatch")
	}
	if !VeryManyReference.IsManyReference() || Reference.IsManyReference() {
		t.Error("IsManyReference mismatch")
	}
	if !Reference.IsReference() || JSON.IsReference() {
		t.Error("IsReference mismatch")
	}
}

func TestCanonicalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"control characters", "a\nb\tc\x01", `"a\nb\tc\u0001"`},
		{"astral plane", "\U0001F600", `"\ud83d\ude00"`},
		{"html is not escaped", "<&>", `"<&>"`},
		{"empty object", map[string]any{}, `{}`},
		{"empty list", []any{}, `[]`},
		{"struct via marshal", struct {
			B int    `json:"b"`
			A string `json:"a"`
		}{B: 1, A: "x"}, `{"a": "x", "b": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalJSON(tt.in)
			if err != nil {
				t.Fatalf("CanonicalJSON() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("CanonicalJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := OptionsFromConfig(map[string]any{
		"type":              "GOB.Decimal",
		"precision":         int64(3),
		"decimal_separator": ",",
		"format":            "%d-%m-%Y",
	})
	if err != nil {
		t.Fatalf("OptionsFromConfig() error = %v", err)
	}
	if opts.Precision == nil || *opts.Precision != 3 {
		t.Errorf("Precision = %v, want 3", opts.Precision)
	}
	if opts.DecimalSeparator != "," || opts.Format != "%d-%m-%Y" {
		t.Errorf("unexpected options %+v", opts)
	}

	if _, err := OptionsFromConfig(map[string]any{"precision": -1}); err == nil {
		t.Error("expected error for negative precision")
	}
	if _, err := OptionsFromConfig(map[string]any{"format": 12}); err == nil {
		t.Error("expected error for non-string format")
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		value, format string
		want          time.Time
		wantErr       bool
	}{
		{"2016-05-04", DateFormat, time.Date(2016, 5, 4, 0, 0, 0, 0, time.UTC), false},
		{"2020-1-5", DateFormat, time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC), false},
		{"0001-05-04", DateFormat, time.Date(1, 5, 4, 0, 0, 0, 0, time.UTC), false},
		{"2020-01-02T03:04:05.5", DateTimeFormat, time.Date(2020, 1, 2, 3, 4, 5, 500000000, time.UTC), false},
		{"04/05/16", "%d/%m/%y", time.Date(2016, 5, 4, 0, 0, 0, 0, time.UTC), false},
		{"04/05/2016", "02/01/2006", time.Date(2016, 5, 4, 0, 0, 0, 0, time.UTC), false},
		{"2016-05-04 extra", DateFormat, time.Time{}, true},
		{"2016", "%Q", time.Time{}, true},
		{"2016", "%", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.value+"|"+tt.format, func(t *testing.T) {
			got, err := parseTime(tt.value, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTime() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("parseTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatCanonicalTimes(t *testing.T) {
	ts := time.Date(7, 3, 9, 1, 2, 3, 4000, time.UTC)
	if got := formatDate(ts); got != "0007-03-09" {
		t.Errorf("formatDate() = %q", got)
	}
	if got := formatDateTime(ts); got != "0007-03-09T01:02:03.000004" {
		t.Errorf("formatDateTime() = %q", got)
	}
}
