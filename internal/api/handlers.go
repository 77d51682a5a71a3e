// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package api

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/chronicle/internal/archive"
	"github.com/tomtom215/chronicle/internal/entity"
	"github.com/tomtom215/chronicle/internal/eventprocessor"
	"github.com/tomtom215/chronicle/internal/middleware"
	"github.com/tomtom215/chronicle/internal/model"
)

// MessagePublisher hands a message to the import transport.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, topic string, m *eventprocessor.Message) (string, error)
}

// MessageProcessor applies a message inline.
type MessageProcessor interface {
	Process(ctx context.Context, msg *eventprocessor.Message) (*eventprocessor.Result, error)
}

// EntityReader loads current entity state.
type EntityReader interface {
	Get(ctx context.Context, key entity.Key) (*entity.Record, error)
}

// ArchiveReader queries applied event history.
type ArchiveReader interface {
	History(ctx context.Context, catalogue, collection, tid string) ([]archive.Record, error)
	Counts(ctx context.Context) (map[string]int64, error)
}

// HealthReporter aggregates component health.
type HealthReporter interface {
	CheckAll(ctx context.Context) eventprocessor.OverallHealth
}

// Dependencies are the collaborators a Handler serves from. Archive and
// Health may be nil.
type Dependencies struct {
	Model       *model.Model
	Codec       *entity.Codec
	Store       EntityReader
	Processor   MessageProcessor
	Publisher   MessagePublisher
	Archive     ArchiveReader
	Health      HealthReporter
	ImportTopic string
}

// Handler serves the HTTP API.
//
// Handler methods are split across files:
//   - handlers_messages.go: message submission
//   - handlers_entities.go: entity state and history
//   - handlers_model.go: model metadata
//   - handlers_health.go: health and statistics
type Handler struct {
	model       *model.Model
	codec       *entity.Codec
	store       EntityReader
	processor   MessageProcessor
	publisher   MessagePublisher
	archive     ArchiveReader
	health      HealthReporter
	importTopic string
	perfMon     *middleware.PerformanceMonitor
	startTime   time.Time
}

// NewHandler validates deps and creates a handler.
func NewHandler(deps Dependencies) (*Handler, error) {
	switch {
	case deps.Model == nil:
		return nil, errors.New("api: model required")
	case deps.Store == nil:
		return nil, errors.New("api: entity store required")
	case deps.Processor == nil:
		return nil, errors.New("api: processor required")
	case deps.Publisher == nil:
		return nil, errors.New("api: publisher required")
	}
	codec := deps.Codec
	if codec == nil {
		codec = entity.NewCodec(deps.Model)
	}
	topic := deps.ImportTopic
	if topic == "" {
		topic = eventprocessor.DefaultImportTopic
	}
	return &Handler{
		model:       deps.Model,
		codec:       codec,
		store:       deps.Store,
		processor:   deps.Processor,
		publisher:   deps.Publisher,
		archive:     deps.Archive,
		health:      deps.Health,
		importTopic: topic,
		perfMon:     middleware.NewPerformanceMonitor(1000),
		startTime:   time.Now(),
	}, nil
}

// PerformanceMonitor returns the monitor the router records requests into.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}
