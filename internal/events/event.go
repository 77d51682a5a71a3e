// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package events

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/chronicle/internal/model"
)

// Payload keys.
const (
	KeyEntity        = "entity"
	KeyModifications = "modifications"
	KeyConfirms      = "confirms"
)

// Event is a mutation event. Data holds the kind-specific payload and is
// rewritten in place by the migration engine.
type Event struct {
	Kind    Kind
	Version string
	Data    map[string]any
}

// Modification is one entry of a MODIFY payload. Only NewValue is applied.
type Modification struct {
	Key      string `json:"key"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
}

// Confirmation is one entry of a BULKCONFIRM payload.
type Confirmation struct {
	TID       string `json:"_tid"`
	LastEvent *int64 `json:"_last_event"`
}

// CreateEvent builds an event from raw changed-field data. The input map is
// not modified.
func CreateEvent(kind Kind, tid string, raw map[string]any, version string) (*Event, error) {
	data := make(map[string]any, 4)
	lastEvent := raw[model.FieldLastEvent]

	switch kind {
	case Add:
		entity := make(map[string]any, len(raw))
		for k, v := range raw {
			if k != KeyModifications {
				entity[k] = v
			}
		}
		data[KeyEntity] = entity
		data[model.FieldLastEvent] = lastEvent
	case Modify:
		mods, ok := raw[KeyModifications]
		if !ok {
			return nil, &ConstructionError{Kind: kind, Reason: "MODIFY event requires modifications"}
		}
		list, err := normaliseModifications(mods)
		if err != nil {
			return nil, &ConstructionError{Kind: kind, Reason: err.Error()}
		}
		hash, ok := raw[model.FieldHash].(string)
		if !ok || hash == "" {
			return nil, &ConstructionError{Kind: kind, Reason: "MODIFY event requires a content hash"}
		}
		data[KeyModifications] = list
		data[model.FieldHash] = hash
		data[model.FieldLastEvent] = lastEvent
	case Delete, Confirm:
		data[model.FieldLastEvent] = lastEvent
	case BulkConfirm:
		confirms, ok := raw[KeyConfirms]
		if !ok {
			return nil, &ConstructionError{Kind: kind, Reason: "BULKCONFIRM event requires confirms"}
		}
		list, err := normaliseConfirms(confirms)
		if err != nil {
			return nil, &ConstructionError{Kind: kind, Reason: err.Error()}
		}
		data[KeyConfirms] = list
		return &Event{Kind: kind, Version: version, Data: data}, nil
	default:
		return nil, &ConstructionError{Kind: kind, Reason: "unknown event kind"}
	}

	if tid == "" {
		return nil, &ConstructionError{Kind: kind, Reason: "entity identifier is required"}
	}
	data[model.FieldTID] = tid
	return &Event{Kind: kind, Version: version, Data: data}, nil
}

// TID returns the identifier of the entity the event mutates.
func (e *Event) TID() string {
	if s, ok := e.Data[model.FieldTID].(string); ok {
		return s
	}
	if entity := e.Entity(); entity != nil {
		if s, ok := entity[model.FieldTID].(string); ok {
			return s
		}
	}
	return ""
}

// LastEvent returns the back-pointer to the previously applied event, or
// nil when the event expects no predecessor.
func (e *Event) LastEvent() (*int64, error) {
	return toOptionalInt64(e.Data[model.FieldLastEvent])
}

// Entity returns the ADD payload's attribute map, or nil.
func (e *Event) Entity() map[string]any {
	m, _ := e.Data[KeyEntity].(map[string]any)
	return m
}

// Hash returns the content hash of a MODIFY event.
func (e *Event) Hash() string {
	s, _ := e.Data[model.FieldHash].(string)
	return s
}

// Modifications returns the MODIFY payload's entries.
func (e *Event) Modifications() ([]Modification, error) {
	raw, ok := e.Data[KeyModifications]
	if !ok {
		return nil, fmt.Errorf("%w: MODIFY payload has no modifications", ErrInvalidPayload)
	}
	list, err := normaliseModifications(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	out := make([]Modification, 0, len(list))
	for _, item := range list {
		m := item.(map[string]any)
		key, _ := m["key"].(string)
		out = append(out, Modification{Key: key, OldValue: m["old_value"], NewValue: m["new_value"]})
	}
	return out, nil
}

// Expand turns a BULKCONFIRM into one CONFIRM per entity. Other kinds are
// returned as a single-element slice.
func (e *Event) Expand() ([]*Event, error) {
	if e.Kind != BulkConfirm {
		return []*Event{e}, nil
	}
	list, err := normaliseConfirms(e.Data[KeyConfirms])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	out := make([]*Event, 0, len(list))
	for _, item := range list {
		m := item.(map[string]any)
		tid, _ := m[model.FieldTID].(string)
		out = append(out, &Event{
			Kind:    Confirm,
			Version: e.Version,
			Data: map[string]any{
				model.FieldTID:       tid,
				model.FieldLastEvent: m[model.FieldLastEvent],
			},
		})
	}
	return out, nil
}

// Clone returns a deep copy, so a failed migration or apply can be retried
// from the original payload.
func (e *Event) Clone() *Event {
	return &Event{Kind: e.Kind, Version: e.Version, Data: deepCopyMap(e.Data)}
}

type wireEvent struct {
	Event   Kind           `json:"event"`
	Data    map[string]any `json:"data"`
	Version string         `json:"version,omitempty"`
}

// MarshalJSON encodes {"event", "data", "version"}.
func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{Event: e.Kind, Data: e.Data, Version: e.Version})
}

// UnmarshalJSON decodes the wire form. Numbers are kept as json.Number so
// integer and decimal attributes keep their exact text.
func (e *Event) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var w wireEvent
	if err := dec.Decode(&w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if w.Event == Unknown {
		return fmt.Errorf("%w: missing event kind", ErrInvalidPayload)
	}
	if w.Data == nil {
		w.Data = map[string]any{}
	}
	e.Kind, e.Data, e.Version = w.Event, w.Data, w.Version
	return nil
}

// Decode parses a single wire-format event.
func Decode(b []byte) (*Event, error) {
	var e Event
	if err := e.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return &e, nil
}

func normaliseModifications(v any) ([]any, error) {
	switch t := v.(type) {
	case []Modification:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = map[string]any{"key": m.Key, "old_value": m.OldValue, "new_value": m.NewValue}
		}
		return out, nil
	case []any:
		for i, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("modification %d is not an object", i)
			}
			if _, ok := m["key"].(string); !ok {
				return nil, fmt.Errorf("modification %d has no key", i)
			}
		}
		return t, nil
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return normaliseModifications(out)
	case nil:
		return nil, fmt.Errorf("modifications must be a list")
	}
	return nil, fmt.Errorf("modifications must be a list, got %T", v)
}

func normaliseConfirms(v any) ([]any, error) {
	switch t := v.(type) {
	case []Confirmation:
		out := make([]any, len(t))
		for i, c := range t {
			var last any
			if c.LastEvent != nil {
				last = *c.LastEvent
			}
			out[i] = map[string]any{model.FieldTID: c.TID, model.FieldLastEvent: last}
		}
		return out, nil
	case []any:
		for i, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("confirm %d is not an object", i)
			}
			if tid, _ := m[model.FieldTID].(string); tid == "" {
				return nil, fmt.Errorf("confirm %d has no %s", i, model.FieldTID)
			}
		}
		return t, nil
	}
	return nil, fmt.Errorf("confirms must be a list, got %T", v)
}

// toOptionalInt64 accepts the numeric shapes produced by decoders and Go
// callers.
func toOptionalInt64(v any) (*int64, error) {
	var n int64
	switch t := v.(type) {
	case nil:
		return nil, nil
	case int64:
		n = t
	case int:
		n = int64(t)
	case int32:
		n = int64(t)
	case float64:
		if t != math.Trunc(t) {
			return nil, fmt.Errorf("%w: %s %v is not an integer", ErrInvalidPayload, model.FieldLastEvent, t)
		}
		n = int64(t)
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, model.FieldLastEvent, err)
		}
		n = i
	case string:
		i, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, model.FieldLastEvent, err)
		}
		n = i
	default:
		return nil, fmt.Errorf("%w: %s has type %T", ErrInvalidPayload, model.FieldLastEvent, v)
	}
	return &n, nil
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCopy(item)
		}
		return out
	}
	return v
}
