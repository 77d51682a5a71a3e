// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package model

import "github.com/tomtom215/chronicle/internal/typesystem"

// Bookkeeping attributes present on every collection.
const (
	FieldSource         = "_source"
	FieldApplication    = "_application"
	FieldSourceID       = "_source_id"
	FieldLastEvent      = "_last_event"
	FieldHash           = "_hash"
	FieldVersion        = "_version"
	FieldDateCreated    = "_date_created"
	FieldDateConfirmed  = "_date_confirmed"
	FieldDateModified   = "_date_modified"
	FieldDateDeleted    = "_date_deleted"
	FieldExpirationDate = "_expiration_date"
	FieldGOBID          = "_gobid"
	FieldID             = "_id"
	FieldTID            = "_tid"
)

// State attributes added to collections with has_states.
const (
	FieldBeginGeldigheid = "begin_geldigheid"
	FieldEindGeldigheid  = "eind_geldigheid"
	FieldSequenceNumber  = "volgnummer"
)

// Keys inside a reference value.
const (
	ReferenceSourceValue = "bronwaarde"
	ReferenceID          = "id"
)

var metadataFields = map[string]typesystem.Kind{
	FieldSource:         typesystem.String,
	FieldApplication:    typesystem.String,
	FieldSourceID:       typesystem.String,
	FieldLastEvent:      typesystem.Integer,
	FieldHash:           typesystem.String,
	FieldVersion:        typesystem.String,
	FieldDateCreated:    typesystem.DateTime,
	FieldDateConfirmed:  typesystem.DateTime,
	FieldDateModified:   typesystem.DateTime,
	FieldDateDeleted:    typesystem.DateTime,
	FieldExpirationDate: typesystem.DateTime,
	FieldGOBID:          typesystem.PKInteger,
	FieldID:             typesystem.String,
	FieldTID:            typesystem.String,
}

var stateFields = map[string]typesystem.Kind{
	FieldBeginGeldigheid: typesystem.DateTime,
	FieldEindGeldigheid:  typesystem.DateTime,
	FieldSequenceNumber:  typesystem.String,
}

// IsMetadata reports whether name is one of the global bookkeeping attributes.
func IsMetadata(name string) bool {
	_, ok := metadataFields[name]
	return ok
}
