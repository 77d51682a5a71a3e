// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/chronicle/internal/archive"
	"github.com/tomtom215/chronicle/internal/entity"
	"github.com/tomtom215/chronicle/internal/events"
	"github.com/tomtom215/chronicle/internal/logging"
	"github.com/tomtom215/chronicle/internal/metrics"
	"github.com/tomtom215/chronicle/internal/migration"
	"github.com/tomtom215/chronicle/internal/model"
	"github.com/tomtom215/chronicle/internal/store"
)

// Archiver receives every successfully applied event.
type Archiver interface {
	Append(ctx context.Context, rec archive.Record) error
}

// Failure describes one event that could not be applied.
type Failure struct {
	Index     int    `json:"index"`
	Event     string `json:"event"`
	TID       string `json:"tid,omitempty"`
	Error     string `json:"error"`
	Category  string `json:"error_category"`
	Retryable bool   `json:"retryable"`

	// Payload is the event as received, before migration.
	Payload *events.Event `json:"-"`
	Err     error         `json:"-"`
}

// Result summarizes one processed message.
type Result struct {
	Catalogue  string         `json:"catalogue"`
	Collection string         `json:"collection"`
	Received   int            `json:"received"`
	Applied    map[string]int `json:"applied"`
	Failures   []Failure      `json:"failures,omitempty"`
}

// OK reports whether every event was applied.
func (r *Result) OK() bool {
	return len(r.Failures) == 0
}

// Processor applies import messages to the entity store. Events of a
// message are applied sequentially; a failing event aborts only itself.
type Processor struct {
	model   *model.Model
	engine  *migration.Engine
	store   store.EntityStore
	archive Archiver
	log     *logging.EventLogger
	locks   *entityLocks
}

// NewProcessor creates a processor. archiver may be nil.
func NewProcessor(m *model.Model, table *migration.Table, s store.EntityStore, archiver Archiver) (*Processor, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: entity store required", ErrInvalidConfig)
	}

	engine := migration.NewEngine(table)
	engine.OnStep = func(catalog, collection, _, _ string) {
		metrics.RecordMigrationStep(catalog, collection)
	}

	return &Processor{
		model:   m,
		engine:  engine,
		store:   s,
		archive: archiver,
		log:     logging.NewEventLogger(),
		locks:   newEntityLocks(),
	}, nil
}

// Model returns the schema the processor applies events against.
func (p *Processor) Model() *model.Model {
	return p.model
}

// Process validates the header and applies every event in order. The
// returned error is non-nil only when the message as a whole is rejected.
func (p *Processor) Process(ctx context.Context, msg *Message) (*Result, error) {
	start := time.Now()
	defer func() { metrics.RecordMessageProcessed(time.Since(start)) }()

	if err := msg.Header.Validate(); err != nil {
		metrics.RecordEventFailed(ErrorCategoryValidation.String())
		return nil, err
	}
	coll, err := p.model.Collection(msg.Header.Catalogue, msg.Header.Collection)
	if err != nil {
		metrics.RecordEventFailed(ErrorCategoryValidation.String())
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	ctx = logging.ContextWithProcessID(ctx, msg.Header.ProcessID)
	meta := msg.Header.Metadata()

	result := &Result{
		Catalogue:  coll.CatalogName,
		Collection: coll.Name,
		Received:   len(msg.Contents),
		Applied:    make(map[string]int),
	}

	for i, ev := range msg.Contents {
		metrics.RecordEventReceived(ev.Kind.String())
		applied, err := p.processEvent(ctx, ev, coll, meta)
		for _, a := range applied {
			result.Applied[a]++
		}
		if err != nil {
			classified := Classify(err)
			category := CategoryOf(classified)
			metrics.RecordEventFailed(category.String())
			p.log.LogEventFailed(ctx, logging.EventFields{
				Catalogue:  coll.CatalogName,
				Collection: coll.Name,
				TID:        ev.TID(),
				Action:     ev.Kind.String(),
				Version:    ev.Version,
			}, err)
			result.Failures = append(result.Failures, Failure{
				Index:     i,
				Event:     ev.Kind.String(),
				TID:       ev.TID(),
				Error:     err.Error(),
				Category:  category.String(),
				Retryable: IsRetryableError(classified),
				Payload:   ev,
				Err:       classified,
			})
		}
	}
	return result, nil
}

// processEvent migrates ev to the live version and applies it, returning
// the actions applied. A BULKCONFIRM applies one CONFIRM per entity and
// stops at the first failing entity.
func (p *Processor) processEvent(ctx context.Context, ev *events.Event, coll *model.Collection, meta events.Metadata) ([]string, error) {
	from := ev.Version
	migrated, err := p.engine.MigrateEvent(ev.Clone(), coll.CatalogName, coll.Name, coll.Version)
	if err != nil {
		return nil, err
	}
	if from != migrated.Version {
		p.log.LogMigrated(ctx, logging.EventFields{
			Catalogue:  coll.CatalogName,
			Collection: coll.Name,
			TID:        migrated.TID(),
			Action:     migrated.Kind.String(),
		}, from, migrated.Version)
	}

	expanded, err := migrated.Expand()
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(expanded))
	for _, sub := range expanded {
		if err := p.apply(ctx, sub, coll, meta); err != nil {
			return applied, err
		}
		applied = append(applied, sub.Kind.Action().String())
	}
	return applied, nil
}

func (p *Processor) apply(ctx context.Context, ev *events.Event, coll *model.Collection, meta events.Metadata) error {
	start := time.Now()

	tid := ev.TID()
	if tid == "" {
		return fmt.Errorf("%w: %s event has no %s", events.ErrInvalidPayload, ev.Kind, model.FieldTID)
	}
	key := entity.Key{Catalogue: coll.CatalogName, Collection: coll.Name, TID: tid}

	// Get, the order check and Put must not interleave with another event
	// for the same entity.
	unlock := p.locks.lock(key)
	defer unlock()

	current, err := p.store.Get(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return NewRetryableError("store get failed", err)
	}

	backPointer, err := ev.LastEvent()
	if err != nil {
		return err
	}
	if err := checkOrder(ev, current, backPointer); err != nil {
		return err
	}

	working := entity.New(key)
	if current != nil {
		working = current.Clone()
	}
	if err := ev.ApplyTo(working, coll, meta); err != nil {
		return err
	}
	if ev.Kind == events.Add {
		if _, ok := working.Get(model.FieldTID); !ok {
			working.Set(model.FieldTID, tid)
		}
		if _, ok := working.Get(model.FieldSource); !ok {
			working.Set(model.FieldSource, meta.Source)
		}
	}

	id, err := p.store.NextEventID(ctx)
	if err != nil {
		return NewRetryableError("store event id failed", err)
	}
	working.SetLastEvent(id)

	if err := p.store.Put(ctx, working); err != nil {
		return NewRetryableError("store put failed", err)
	}

	fields := logging.EventFields{
		Catalogue:  coll.CatalogName,
		Collection: coll.Name,
		TID:        tid,
		Action:     ev.Kind.Action().String(),
		Version:    ev.Version,
		EventID:    id,
	}
	p.archiveEvent(ctx, id, ev, meta, fields)

	metrics.RecordEventApplied(coll.CatalogName, coll.Name, fields.Action, time.Since(start))
	p.log.LogEventApplied(ctx, fields, time.Since(start))
	return nil
}

// checkOrder enforces that the entity's current _last_event equals the
// event's back-pointer. Only an ADD may target a missing entity.
func checkOrder(ev *events.Event, current *entity.Record, backPointer *int64) error {
	if current == nil {
		if ev.Kind != events.Add {
			return fmt.Errorf("%w: %s on missing entity", ErrOutOfOrder, ev.Kind)
		}
		if backPointer != nil {
			return fmt.Errorf("%w: ADD of new entity expects no predecessor, got %d", ErrOutOfOrder, *backPointer)
		}
		return nil
	}

	have := current.LastEvent()
	switch {
	case have == nil && backPointer == nil:
		return nil
	case have == nil || backPointer == nil || *have != *backPointer:
		return fmt.Errorf("%w: entity at %s, event expects %s", ErrOutOfOrder, formatEventID(have), formatEventID(backPointer))
	}
	return nil
}

func formatEventID(id *int64) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *id)
}

// archiveEvent records an applied event. The entity is already persisted,
// so archive failures are logged and counted but do not fail the event.
func (p *Processor) archiveEvent(ctx context.Context, id int64, ev *events.Event, meta events.Metadata, f logging.EventFields) {
	if p.archive == nil {
		return
	}
	err := p.archive.Append(ctx, archive.Record{
		EventID:     id,
		Timestamp:   meta.Timestamp,
		Catalogue:   f.Catalogue,
		Collection:  f.Collection,
		TID:         f.TID,
		Action:      f.Action,
		Version:     ev.Version,
		Source:      meta.Source,
		Application: meta.Application,
		ProcessID:   meta.ProcessID,
		Contents:    ev.Data,
	})
	if err != nil && !errors.Is(err, archive.ErrDuplicateEvent) {
		logging.CtxWarn(ctx).Err(err).Int64("event_id", id).Msg("Failed to archive applied event")
	}
}
