// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/chronicle/internal/cache"
	"github.com/tomtom215/chronicle/internal/logging"
	"github.com/tomtom215/chronicle/internal/metrics"
)

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// ThrottlePerSecond limits handled messages per second. 0 disables it.
	ThrottlePerSecond int64

	// PoisonQueueTopic receives messages whose handler still fails after
	// all retries. Empty disables the poison queue.
	PoisonQueueTopic string

	DeduplicationEnabled bool
	DeduplicationTTL     time.Duration
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      5,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     time.Minute,
		RetryMultiplier:      2.0,
		ThrottlePerSecond:    0,
		PoisonQueueTopic:     DefaultPoisonTopic,
		DeduplicationEnabled: true,
		DeduplicationTTL:     5 * time.Minute,
	}
}

// Deduplicator implements middleware.ExpiringKeyRepository on an LRU.
// Message UUIDs survive NATS redelivery, so a key is forgotten again when
// its handler fails; otherwise the redelivered message would be dropped.
type Deduplicator struct {
	cache *cache.LRU
}

// NewDeduplicator creates a deduplicator holding up to 10000 keys.
func NewDeduplicator(ttl time.Duration) *Deduplicator {
	return &Deduplicator{cache: cache.NewLRU(10000, ttl)}
}

// IsDuplicate records key and reports whether it was already seen.
func (d *Deduplicator) IsDuplicate(ctx context.Context, key string) (bool, error) {
	if d.cache.Seen(key) {
		metrics.RecordNATSDeduplicated()
		logging.NewEventLogger().LogDuplicate(ctx, key)
		return true, nil
	}
	return false, nil
}

// Forget removes key so a later delivery is handled again.
func (d *Deduplicator) Forget(key string) {
	d.cache.Forget(key)
}

// forgetOnError runs inside the deduplicator and un-records messages
// whose handler failed.
func (d *Deduplicator) forgetOnError(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if err != nil {
			d.Forget(msg.UUID)
		}
		return out, err
	}
}

// Router wraps the Watermill Router with pre-configured middleware: panic
// recovery, exponential retry, optional throttling, message deduplication
// and poison queue routing. A Router runs once; build a new one to restart.
type Router struct {
	router    *message.Router
	config    RouterConfig
	logger    watermill.LoggerAdapter
	running   atomic.Bool
	mu        sync.RWMutex
	handlers  map[string]*message.Handler
	dedupRepo *Deduplicator
}

// NewRouter creates a Router. poisonPublisher may be nil to disable the
// poison queue.
func NewRouter(cfg *RouterConfig, poisonPublisher message.Publisher, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}
	if cfg == nil {
		defaultCfg := DefaultRouterConfig()
		cfg = &defaultCfg
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router:   wmRouter,
		config:   *cfg,
		logger:   logger,
		handlers: make(map[string]*message.Handler),
	}

	// Outer to inner: Recoverer, PoisonQueue, Retry, Throttle, Deduplicator.
	// The poison queue wraps retry so only exhausted messages reach it.
	wmRouter.AddMiddleware(middleware.Recoverer)

	if poisonPublisher != nil && cfg.PoisonQueueTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(poisonPublisher, cfg.PoisonQueueTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          logger,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	if cfg.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second)
		wmRouter.AddMiddleware(throttle.Middleware)
	}

	if cfg.DeduplicationEnabled {
		r.dedupRepo = NewDeduplicator(cfg.DeduplicationTTL)
		dedup := middleware.Deduplicator{
			KeyFactory: func(msg *message.Message) (string, error) {
				return msg.UUID, nil
			},
			Repository: r.dedupRepo,
		}
		wmRouter.AddMiddleware(dedup.Middleware, r.dedupRepo.forgetOnError)
	}

	return r, nil
}

// AddConsumerHandler registers a handler that produces no output messages.
func (r *Router) AddConsumerHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	handler message.NoPublishHandlerFunc,
) *message.Handler {
	h := r.router.AddConsumerHandler(name, subscribeTopic, subscriber, handler)
	r.mu.Lock()
	r.handlers[name] = h
	r.mu.Unlock()
	logging.NewEventLogger().LogSubscriptionStarted(subscribeTopic, 1)
	return h
}

// AddHandlerMiddleware adds middleware to a specific handler.
// Handler-level middleware runs after router-level middleware.
func (r *Router) AddHandlerMiddleware(handlerName string, m ...message.HandlerMiddleware) error {
	r.mu.RLock()
	h, exists := r.handlers[handlerName]
	r.mu.RUnlock()
	if !exists {
		return fmt.Errorf("handler %q not found", handlerName)
	}
	h.AddMiddleware(m...)
	return nil
}

// Run starts the router and blocks until ctx is cancelled or Close is called.
func (r *Router) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)

	log := logging.NewEventLogger()
	log.LogRouterStarted()
	defer log.LogRouterStopped()

	return r.router.Run(ctx)
}

// Running returns a channel that closes when the router is running.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close gracefully stops the router, waiting up to CloseTimeout for
// in-flight messages.
func (r *Router) Close() error {
	return r.router.Close()
}

// IsRunning returns whether the router is currently processing messages.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}

// HealthCheck implements HealthCheckable.
func (r *Router) HealthCheck(_ context.Context) ComponentHealth {
	health := ComponentHealth{
		Name:      "router",
		LastCheck: time.Now(),
		Details:   make(map[string]interface{}),
	}

	if !r.IsRunning() {
		health.Error = "Router is not running"
		return health
	}

	r.mu.RLock()
	health.Details["handlers"] = len(r.handlers)
	r.mu.RUnlock()
	if r.dedupRepo != nil {
		hits, misses, size := r.dedupRepo.cache.Stats()
		health.Details["dedup_hits"] = hits
		health.Details["dedup_misses"] = misses
		health.Details["dedup_size"] = size
	}
	health.Healthy = true
	health.Message = "Router is running"
	return health
}
