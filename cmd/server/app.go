// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tomtom215/chronicle/internal/api"
	"github.com/tomtom215/chronicle/internal/archive"
	"github.com/tomtom215/chronicle/internal/config"
	"github.com/tomtom215/chronicle/internal/entity"
	"github.com/tomtom215/chronicle/internal/eventprocessor"
	"github.com/tomtom215/chronicle/internal/logging"
	"github.com/tomtom215/chronicle/internal/migration"
	"github.com/tomtom215/chronicle/internal/model"
	"github.com/tomtom215/chronicle/internal/store"
	"github.com/tomtom215/chronicle/internal/supervisor/services"
)

// app holds the long-lived components. The supervisor tree runs loops over
// them; app owns opening and closing them.
type app struct {
	cfg         *config.Config
	store       store.EntityStore
	archive     *archive.DuckDBArchive
	processor   *eventprocessor.Processor
	transport   *eventprocessor.Transport
	health      *eventprocessor.HealthChecker
	httpHandler http.Handler

	// router is the currently running router, swapped on every restart.
	router atomic.Pointer[eventprocessor.Router]
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg, health: eventprocessor.NewHealthChecker(5 * time.Second)}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	m, err := model.Load(cfg.Model.Path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	var table *migration.Table
	if cfg.Migrations.Path != "" {
		if table, err = migration.Load(cfg.Migrations.Path); err != nil {
			return nil, fmt.Errorf("load migrations: %w", err)
		}
	}
	logging.Info().
		Strs("catalogues", m.CatalogNames()).
		Int("migration_steps", table.Len()).
		Msg("Model loaded")

	codec := entity.NewCodec(m)
	if a.store, err = store.Open(ctx, storeConfig(cfg), codec); err != nil {
		return nil, fmt.Errorf("open entity store: %w", err)
	}
	a.health.RegisterComponent("entity_store", storeHealth(a.store))

	var archiver eventprocessor.Archiver
	var archiveReader api.ArchiveReader
	if cfg.Archive.Enabled {
		a.archive, err = archive.Open(ctx, archive.Config{
			Path:      cfg.Archive.Path,
			Threads:   cfg.Archive.Threads,
			MaxMemory: cfg.Archive.MaxMemory,
		})
		if err != nil {
			return nil, fmt.Errorf("open archive: %w", err)
		}
		archiver, archiveReader = a.archive, a.archive
		arch := a.archive
		a.health.RegisterOptional("archive", eventprocessor.HealthCheckFunc(func(ctx context.Context) eventprocessor.ComponentHealth {
			if err := arch.Ping(ctx); err != nil {
				return eventprocessor.ComponentHealth{Error: err.Error()}
			}
			return eventprocessor.ComponentHealth{Healthy: true}
		}))
	}

	if a.processor, err = eventprocessor.NewProcessor(m, table, a.store, archiver); err != nil {
		return nil, err
	}

	if a.transport, err = eventprocessor.NewTransport(ctx, transportConfig(cfg), logging.NewWatermillAdapter()); err != nil {
		return nil, fmt.Errorf("create transport: %w", err)
	}
	a.transport.RegisterHealth(a.health)
	a.health.RegisterComponent("router", eventprocessor.HealthCheckFunc(func(ctx context.Context) eventprocessor.ComponentHealth {
		if r := a.router.Load(); r != nil {
			return r.HealthCheck(ctx)
		}
		return eventprocessor.ComponentHealth{Error: "router not started"}
	}))

	handler, err := api.NewHandler(api.Dependencies{
		Model:       m,
		Codec:       codec,
		Store:       a.store,
		Processor:   a.processor,
		Publisher:   a.transport.Publisher,
		Archive:     archiveReader,
		Health:      a.health,
		ImportTopic: importTopic(cfg),
	})
	if err != nil {
		return nil, err
	}
	a.httpHandler = api.NewRouter(handler, api.RouterConfig{
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
		RateLimitRequests: cfg.Server.RateLimitReqs,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		RateLimitDisabled: cfg.Server.RateLimitDisabled,
	})
	return a, nil
}

// buildRouter is the RouterService factory.
func (a *app) buildRouter() (services.MessageRouter, error) {
	rc := routerConfig(a.cfg)
	r, err := eventprocessor.NewRouter(&rc, a.transport.Publisher, logging.NewWatermillAdapter())
	if err != nil {
		return nil, err
	}
	h, err := eventprocessor.NewImportHandler(a.processor, a.transport.Publisher, a.cfg.NATS.DeadLetterTopic)
	if err != nil {
		return nil, err
	}
	r.AddConsumerHandler("import", importTopic(a.cfg), a.transport.Subscriber, h.Handle)
	a.router.Store(r)
	return r, nil
}

// badgerGC returns the value log GC of a badger store, or nil.
func (a *app) badgerGC() func() error {
	s := a.store
	if b, ok := s.(*store.BreakerStore); ok {
		s = b.EntityStore
	}
	if b, ok := s.(*store.BadgerStore); ok {
		return b.RunGC
	}
	return nil
}

// Close releases the transport, archive and store, in that order.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.transport != nil {
		errs = append(errs, a.transport.Close(ctx))
	}
	if a.archive != nil {
		errs = append(errs, a.archive.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

func storeHealth(s store.EntityStore) eventprocessor.HealthCheckable {
	return eventprocessor.HealthCheckFunc(func(context.Context) eventprocessor.ComponentHealth {
		h := eventprocessor.ComponentHealth{
			Healthy: true,
			Details: map[string]interface{}{"driver": s.Driver()},
		}
		if b, ok := s.(*store.BreakerStore); ok {
			state := b.State()
			h.Details["breaker"] = state
			switch state {
			case "open":
				h.Healthy = false
				h.Error = "circuit breaker open"
			case "half-open":
				h.Degraded = true
			}
		}
		return h
	})
}

func importTopic(cfg *config.Config) string {
	if cfg.NATS.ImportTopic != "" {
		return cfg.NATS.ImportTopic
	}
	return eventprocessor.DefaultImportTopic
}

func storeConfig(cfg *config.Config) store.Config {
	c := cfg.Store
	return store.Config{
		Driver: c.Driver,
		Badger: store.BadgerConfig{
			Path:             c.Badger.Path,
			SyncWrites:       c.Badger.SyncWrites,
			Compression:      c.Badger.Compression,
			MemTableSize:     c.Badger.MemTableSize,
			ValueLogFileSize: c.Badger.ValueLogFileSize,
			NumCompactors:    c.Badger.NumCompactors,
			GCRatio:          c.Badger.GCRatio,
		},
		Postgres: store.PostgresConfig{
			DSN:      c.Postgres.DSN,
			MaxConns: c.Postgres.MaxConns,
		},
		Breaker: store.BreakerConfig{
			Enabled:          c.Breaker.Enabled,
			MaxRequests:      c.Breaker.MaxRequests,
			Interval:         c.Breaker.Interval,
			Timeout:          c.Breaker.Timeout,
			FailureThreshold: c.Breaker.FailureThreshold,
		},
	}
}

func transportConfig(cfg *config.Config) eventprocessor.TransportConfig {
	n := cfg.NATS

	stream := eventprocessor.DefaultStreamConfig()
	if n.StreamName != "" {
		stream.Name = n.StreamName
	}
	if n.StreamRetentionDays > 0 {
		stream.MaxAge = time.Duration(n.StreamRetentionDays) * 24 * time.Hour
	}
	if n.MaxStore > 0 {
		stream.MaxBytes = n.MaxStore
	}

	server := eventprocessor.DefaultServerConfig()
	if n.StoreDir != "" {
		server.StoreDir = n.StoreDir
	}
	if n.MaxMemory > 0 {
		server.JetStreamMaxMem = n.MaxMemory
	}
	if n.MaxStore > 0 {
		server.JetStreamMaxStore = n.MaxStore
	}

	sub := eventprocessor.DefaultSubscriberConfig(n.URL)
	if n.DurableName != "" {
		sub.DurableName = n.DurableName
	}
	if n.QueueGroup != "" {
		sub.QueueGroup = n.QueueGroup
	}
	if n.SubscribersCount > 0 {
		sub.SubscribersCount = n.SubscribersCount
	}

	return eventprocessor.TransportConfig{
		NATSEnabled:    n.Enabled,
		URL:            n.URL,
		EmbeddedServer: n.EmbeddedServer,
		Server:         server,
		Stream:         stream,
		Subscriber:     sub,
		Publisher:      eventprocessor.DefaultPublisherConfig(n.URL),
		Breaker:        eventprocessor.DefaultCircuitBreakerConfig("nats-publisher"),
		Topics:         []string{importTopic(cfg), n.DeadLetterTopic, routerConfig(cfg).PoisonQueueTopic},
	}
}

func routerConfig(cfg *config.Config) eventprocessor.RouterConfig {
	n := cfg.NATS
	rc := eventprocessor.DefaultRouterConfig()
	rc.RetryMaxRetries = n.RouterRetryCount
	if n.RouterRetryInitialInterval > 0 {
		rc.RetryInitialInterval = n.RouterRetryInitialInterval
	}
	rc.ThrottlePerSecond = int64(n.RouterThrottlePerSecond)
	rc.DeduplicationEnabled = n.RouterDeduplicationEnabled
	if n.RouterDeduplicationTTL > 0 {
		rc.DeduplicationTTL = n.RouterDeduplicationTTL
	}
	rc.PoisonQueueTopic = ""
	if n.RouterPoisonQueueEnabled {
		rc.PoisonQueueTopic = n.RouterPoisonQueueTopic
		if rc.PoisonQueueTopic == "" {
			rc.PoisonQueueTopic = eventprocessor.DefaultPoisonTopic
		}
	}
	if n.RouterCloseTimeout > 0 {
		rc.CloseTimeout = n.RouterCloseTimeout
	}
	return rc
}
