// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrorCode is the API error code for every validation failure.
const ErrorCode = "VALIDATION_ERROR"

// versionPattern matches dotted numeric model versions such as "0.1" or "1.10.2".
var versionPattern = regexp.MustCompile(`^\d+(\.\d+)*$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule. Field is the json name when the struct
// field has a json tag, otherwise the koanf name, otherwise the Go name.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Errors lists every failed rule of one struct, in field order.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e))
	for i := range e {
		msgs[i] = e[i].Message
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the failing field names.
func (e Errors) Fields() []string {
	out := make([]string, len(e))
	for i := range e {
		out[i] = e[i].Field
	}
	return out
}

// APIError is the error body returned by the HTTP API.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToAPIError flattens the failures into one API error. A single failure
// reports its field and tag directly; several are listed under "fields".
func (e Errors) ToAPIError() *APIError {
	switch len(e) {
	case 0:
		return &APIError{Code: ErrorCode, Message: "Validation failed"}
	case 1:
		return &APIError{
			Code:    ErrorCode,
			Message: e[0].Message,
			Details: map[string]any{"field": e[0].Field, "tag": e[0].Tag},
		}
	}
	return &APIError{
		Code:    ErrorCode,
		Message: e.Error(),
		Details: map[string]any{"fields": []FieldError(e)},
	}
}

// GetValidator returns the process-wide validator.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(tagName)
		_ = validate.RegisterValidation("modelversion", func(fl validator.FieldLevel) bool {
			return versionPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

func tagName(fld reflect.StructField) string {
	for _, key := range []string{"json", "koanf"} {
		name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}

// ValidateStruct checks s against its validate tags. It returns nil when s
// is valid.
func ValidateStruct(s any) Errors {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{{Field: "unknown", Tag: "unknown", Message: err.Error()}}
	}

	out := make(Errors, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: message(fe),
		}
	}
	return out
}

// IsValidVersion reports whether s is a dotted numeric model version.
func IsValidVersion(s string) bool {
	return versionPattern.MatchString(s)
}

func message(fe validator.FieldError) string {
	f, p := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "modelversion":
		return f + " must be a dotted numeric version such as 0.1"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, p)
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be %s %s characters", f, bound, p)
		}
		return fmt.Sprintf("%s must be %s %s", f, bound, p)
	}
	return fmt.Sprintf("%s failed %s validation", f, fe.Tag())
}
