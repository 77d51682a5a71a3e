// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package eventprocessor

import (
	"context"
	"testing"
	"time"
)

func TestNewTransport_GoChannel(t *testing.T) {
	tr, err := NewTransport(context.Background(), TransportConfig{}, nil)
	if err != nil {
		t.Fatalf("NewTransport() error = %v", err)
	}
	if tr.Kind() != "gochannel" {
		t.Errorf("Kind() = %q, want gochannel", tr.Kind())
	}
	if tr.EmbeddedServer() != nil {
		t.Error("in-process transport should not start a server")
	}

	hc := NewHealthChecker(time.Second)
	tr.RegisterHealth(hc)
	if len(hc.Names()) != 0 {
		t.Errorf("in-process transport registered %v", hc.Names())
	}

	msgs, err := tr.Subscriber.Subscribe(context.Background(), DefaultImportTopic)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	id, err := tr.Publisher.PublishMessage(context.Background(), DefaultImportTopic,
		mustDecode(t, importPayload("1.1", addJSON("1", "null", "A"))))
	if err != nil {
		t.Fatalf("PublishMessage() error = %v", err)
	}
	select {
	case m := <-msgs:
		m.Ack()
		if m.UUID != id {
			t.Errorf("UUID = %s, want %s", m.UUID, id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}

	if err := tr.Close(context.Background()); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewTransport_EmbeddedNATS(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}

	cfg := TransportConfig{
		NATSEnabled:    true,
		EmbeddedServer: true,
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              -1,
			StoreDir:          t.TempDir(),
			JetStreamMaxMem:   64 << 20,
			JetStreamMaxStore: 256 << 20,
		},
		Stream:     DefaultStreamConfig(),
		Subscriber: DefaultSubscriberConfig(""),
		Publisher:  DefaultPublisherConfig(""),
		Breaker:    DefaultCircuitBreakerConfig("nats-test"),
	}
	cfg.Stream.MaxBytes = 64 << 20
	cfg.Subscriber.CloseTimeout = time.Second

	ctx := context.Background()
	tr, err := NewTransport(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewTransport() error = %v", err)
	}
	defer func() {
		if err := tr.Close(ctx); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()

	if tr.Kind() != "nats" || tr.EmbeddedServer() == nil {
		t.Fatalf("transport = %s, server %v", tr.Kind(), tr.EmbeddedServer())
	}

	hc := NewHealthChecker(5 * time.Second)
	tr.RegisterHealth(hc)
	overall := hc.CheckAll(ctx)
	if !overall.Healthy {
		t.Errorf("health = %+v", overall)
	}
	for _, name := range []string{"nats_server", "stream", "nats_connection"} {
		if _, ok := overall.Components[name]; !ok {
			t.Errorf("component %s not registered", name)
		}
	}

	msgs, err := tr.Subscriber.Subscribe(ctx, DefaultImportTopic)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	id, err := tr.Publisher.PublishMessage(ctx, DefaultImportTopic,
		mustDecode(t, importPayload("1.1", addJSON("1", "null", "A"))))
	if err != nil {
		t.Fatalf("PublishMessage() error = %v", err)
	}
	select {
	case m := <-msgs:
		m.Ack()
		if m.UUID != id {
			t.Errorf("UUID = %s, want %s", m.UUID, id)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("message not delivered over JetStream")
	}
}
