// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package eventprocessor

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/chronicle/internal/events"
	"github.com/tomtom215/chronicle/internal/typesystem"
	"github.com/tomtom215/chronicle/internal/validation"
)

// Header is the metadata every import message carries. A message whose
// header is incomplete is rejected before any event is touched.
type Header struct {
	Catalogue string `json:"catalogue" validate:"required"`
	// Collection may also be sent under the legacy name "entity".
	Collection  string    `json:"collection" validate:"required"`
	Source      string    `json:"source" validate:"required"`
	Application string    `json:"application,omitempty"`
	Timestamp   time.Time `json:"timestamp" validate:"required"`
	Version     string    `json:"version" validate:"required,modelversion"`
	ProcessID   string    `json:"process_id" validate:"required"`
}

// Metadata returns the context events are applied under.
func (h *Header) Metadata() events.Metadata {
	return events.Metadata{
		Catalogue:   h.Catalogue,
		Collection:  h.Collection,
		Source:      h.Source,
		Application: h.Application,
		Timestamp:   h.Timestamp,
		ProcessID:   h.ProcessID,
	}
}

// Validate checks the header against its validate tags.
func (h *Header) Validate() error {
	if verr := validation.ValidateStruct(h); verr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHeader, verr)
	}
	return nil
}

// UnmarshalJSON accepts "entity" as an alias of "collection", and a
// timestamp either with a zone (RFC 3339) or without one, as Python's
// isoformat() writes it. Zoneless timestamps are taken as UTC.
func (h *Header) UnmarshalJSON(b []byte) error {
	type plain Header
	var aux struct {
		plain
		Entity    string  `json:"entity"`
		Timestamp *string `json:"timestamp"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*h = Header(aux.plain)
	if h.Collection == "" {
		h.Collection = aux.Entity
	}
	if aux.Timestamp != nil && *aux.Timestamp != "" {
		ts, err := parseHeaderTimestamp(*aux.Timestamp)
		if err != nil {
			return fmt.Errorf("header timestamp: %w", err)
		}
		h.Timestamp = ts
	}
	return nil
}

func parseHeaderTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	v, err := typesystem.FromValue(typesystem.DateTime, s, typesystem.Options{})
	if err != nil {
		return time.Time{}, err
	}
	ts, _ := v.ToDB().(time.Time)
	return ts, nil
}

// Summary is optional producer bookkeeping echoed back unchanged.
type Summary map[string]any

// Message is an import message: a header plus events in application order.
type Message struct {
	Header   Header          `json:"header"`
	Summary  Summary         `json:"summary,omitempty"`
	Contents []*events.Event `json:"contents"`
}

// DecodeMessage parses a message. Events without a version inherit the
// header's version.
func DecodeMessage(payload []byte) (*Message, error) {
	var raw struct {
		Header   Header            `json:"header"`
		Summary  Summary           `json:"summary"`
		Contents []json.RawMessage `json:"contents"`
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	msg := &Message{
		Header:   raw.Header,
		Summary:  raw.Summary,
		Contents: make([]*events.Event, 0, len(raw.Contents)),
	}
	for i, item := range raw.Contents {
		ev, err := events.Decode(item)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d: %v", ErrInvalidMessage, i, err)
		}
		if ev.Version == "" {
			ev.Version = msg.Header.Version
		}
		msg.Contents = append(msg.Contents, ev)
	}
	return msg, nil
}

// Encode serializes the message to its wire form.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
