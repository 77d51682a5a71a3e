// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type testHeader struct {
	Catalogue  string `json:"catalogue" validate:"required"`
	Collection string `json:"collection" validate:"required"`
	Version    string `json:"version" validate:"omitempty,modelversion"`
	Driver     string `json:"driver" validate:"omitempty,oneof=badger postgres memory"`
	Workers    int    `json:"workers" validate:"min=0,max=64"`
	Internal   string `validate:"omitempty,min=2"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		input      testHeader
		wantFields []string
		wantMsg    string
	}{
		{
			name:  "valid",
			input: testHeader{Catalogue: "meetbouten", Collection: "meetbouten", Version: "0.1", Driver: "badger"},
		},
		{
			name:       "missing required uses json names",
			input:      testHeader{},
			wantFields: []string{"catalogue", "collection"},
			wantMsg:    "catalogue is required",
		},
		{
			name:       "bad version",
			input:      testHeader{Catalogue: "c", Collection: "c", Version: "v1"},
			wantFields: []string{"version"},
			wantMsg:    "version must be a dotted numeric version",
		},
		{
			name:       "oneof",
			input:      testHeader{Catalogue: "c", Collection: "c", Driver: "sqlite"},
			wantFields: []string{"driver"},
			wantMsg:    "driver must be one of: badger postgres memory",
		},
		{
			name:       "max number",
			input:      testHeader{Catalogue: "c", Collection: "c", Workers: 100},
			wantFields: []string{"workers"},
			wantMsg:    "workers must be at most 64",
		},
		{
			name:       "untagged field keeps go name",
			input:      testHeader{Catalogue: "c", Collection: "c", Internal: "x"},
			wantFields: []string{"Internal"},
			wantMsg:    "Internal must be at least 2 characters",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.input)
			if len(tt.wantFields) == 0 {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			got := verr.Fields()
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("Fields() = %v, want %v", got, tt.wantFields)
			}
			if !strings.Contains(verr.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want it to contain %q", verr.Error(), tt.wantMsg)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	single := ValidateStruct(&testHeader{Collection: "c"})
	apiErr := single.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" || apiErr.Details["field"] != "catalogue" {
		t.Errorf("single ToAPIError() = %+v", apiErr)
	}

	multi := ValidateStruct(&testHeader{})
	apiErr = multi.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("multi ToAPIError() details = %+v", apiErr.Details)
	}
	if apiErr.Message != "catalogue is required; collection is required" {
		t.Errorf("multi message = %q", apiErr.Message)
	}

	var empty Errors
	if empty.Error() != "validation failed" || empty.ToAPIError().Message != "Validation failed" {
		t.Error("empty Errors should have default messages")
	}
}

type koanfOnly struct {
	Port int `koanf:"port" validate:"min=1"`
}

func TestValidateStruct_KoanfNames(t *testing.T) {
	verr := ValidateStruct(&koanfOnly{})
	if got := verr.Fields(); len(got) != 1 || got[0] != "port" {
		t.Errorf("Fields() = %v, want [port]", got)
	}
}

func TestIsValidVersion(t *testing.T) {
	tests := map[string]bool{
		"0.1":    true,
		"1":      true,
		"2.10.3": true,
		"":       false,
		"v1.0":   false,
		"1.":     false,
		"1..2":   false,
	}
	for in, want := range tests {
		if got := IsValidVersion(in); got != want {
			t.Errorf("IsValidVersion(%q) = %v, want %v", in, got, want)
		}
	}
}
