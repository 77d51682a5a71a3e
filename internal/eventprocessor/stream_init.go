// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// streamAdmin is the part of JetStream stream management the initializer
// needs. jsAdmin adapts a jetstream.JetStream to it.
type streamAdmin interface {
	StreamInfo(ctx context.Context, name string) (*jetstream.StreamInfo, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) error
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) error
}

type jsAdmin struct {
	js jetstream.JetStream
}

func (a jsAdmin) StreamInfo(ctx context.Context, name string) (*jetstream.StreamInfo, error) {
	s, err := a.js.Stream(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.Info(ctx)
}

func (a jsAdmin) CreateStream(ctx context.Context, cfg jetstream.StreamConfig) error {
	_, err := a.js.CreateStream(ctx, cfg)
	return err
}

func (a jsAdmin) UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) error {
	_, err := a.js.UpdateStream(ctx, cfg)
	return err
}

// StreamInitializer creates or updates the import stream before publishers
// and subscribers start. Every topic Chronicle publishes to must fall under
// one of the stream's subjects; a topic outside them would be accepted by
// core NATS and silently never stored.
type StreamInitializer struct {
	admin  streamAdmin
	config StreamConfig
}

// NewStreamInitializer validates cfg against the topics that will be
// published (import, dead-letter, poison).
func NewStreamInitializer(js jetstream.JetStream, cfg *StreamConfig, topics ...string) (*StreamInitializer, error) {
	if js == nil {
		return nil, fmt.Errorf("%w: JetStream context required", ErrInvalidConfig)
	}
	return newStreamInitializer(jsAdmin{js: js}, cfg, topics...)
}

func newStreamInitializer(admin streamAdmin, cfg *StreamConfig, topics ...string) (*StreamInitializer, error) {
	if cfg == nil || cfg.Name == "" || len(cfg.Subjects) == 0 {
		return nil, fmt.Errorf("%w: stream needs a name and at least one subject", ErrInvalidConfig)
	}
	for _, topic := range topics {
		if topic != "" && !cfg.Covers(topic) {
			return nil, fmt.Errorf("%w: topic %q is not covered by stream %s subjects %v",
				ErrInvalidConfig, topic, cfg.Name, cfg.Subjects)
		}
	}
	return &StreamInitializer{admin: admin, config: *cfg}, nil
}

// Covers reports whether topic matches one of the stream subjects, using
// NATS wildcard rules: "*" matches one token, a trailing ">" one or more.
func (c *StreamConfig) Covers(topic string) bool {
	for _, s := range c.Subjects {
		if subjectMatches(s, topic) {
			return true
		}
	}
	return false
}

func subjectMatches(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")
	for i, p := range pt {
		if p == ">" {
			return i == len(pt)-1 && len(st) > i
		}
		if i >= len(st) || (p != "*" && p != st[i]) {
			return false
		}
	}
	return len(pt) == len(st)
}

func (s *StreamInitializer) streamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        s.config.Name,
		Subjects:    s.config.Subjects,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      s.config.MaxAge,
		MaxBytes:    s.config.MaxBytes,
		MaxMsgs:     s.config.MaxMsgs,
		Duplicates:  s.config.DuplicateWindow,
		Replicas:    s.config.Replicas,
		Storage:     jetstream.FileStorage,
		AllowDirect: true,
		Discard:     jetstream.DiscardOld,
	}
}

// EnsureStream creates the stream or brings an existing one to the
// configured limits. The deduplication window together with Nats-Msg-Id
// drops producer retries. It reports whether the stream was created.
func (s *StreamInitializer) EnsureStream(ctx context.Context) (created bool, err error) {
	cfg := s.streamConfig()

	_, err = s.admin.StreamInfo(ctx, cfg.Name)
	switch {
	case err == nil:
		if err := s.admin.UpdateStream(ctx, cfg); err != nil {
			return false, fmt.Errorf("update stream %s: %w", cfg.Name, err)
		}
		return false, nil
	case errors.Is(err, jetstream.ErrStreamNotFound):
		if err := s.admin.CreateStream(ctx, cfg); err != nil {
			return false, fmt.Errorf("create stream %s: %w", cfg.Name, err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("check stream %s: %w", cfg.Name, err)
	}
}

// HealthCheck reports the stream's message count and fill level. A stream
// above 90% of MaxBytes is degraded: DiscardOld will start dropping
// messages that may not have been consumed yet.
func (s *StreamInitializer) HealthCheck(ctx context.Context) ComponentHealth {
	h := ComponentHealth{Name: "stream", LastCheck: time.Now()}
	info, err := s.admin.StreamInfo(ctx, s.config.Name)
	if err != nil {
		h.Error = err.Error()
		return h
	}
	h.Healthy = true
	h.Details = map[string]interface{}{
		"messages":  info.State.Msgs,
		"bytes":     info.State.Bytes,
		"consumers": info.State.Consumers,
	}
	if s.config.MaxBytes > 0 && float64(info.State.Bytes) > 0.9*float64(s.config.MaxBytes) {
		h.Degraded = true
		h.Message = "stream above 90% of max bytes"
	}
	return h
}

// Config returns the stream configuration.
func (s *StreamInitializer) Config() StreamConfig {
	return s.config
}
