// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata and is safe for concurrent use. Field names in errors are taken
// from json tags, then koanf tags, so that header errors name the wire keys
// ("catalogue", "process_id") and config errors name the YAML keys.
//
// Custom tags:
//   - modelversion: a dotted numeric version such as "0.1" or "2.10.3"
//
// Example:
//
//	type Header struct {
//	    Catalogue string `json:"catalogue" validate:"required"`
//	    Version   string `json:"version" validate:"omitempty,modelversion"`
//	}
//
//	if verr := validation.ValidateStruct(&h); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // respond 400 with apiErr
//	}
package validation
