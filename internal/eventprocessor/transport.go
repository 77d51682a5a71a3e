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

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/chronicle/internal/logging"
)

// TransportConfig selects and configures the message transport.
type TransportConfig struct {
	// NATSEnabled selects NATS JetStream; otherwise an in-process
	// gochannel pub/sub is used.
	NATSEnabled    bool
	URL            string
	EmbeddedServer bool
	Server         ServerConfig
	Stream         StreamConfig
	Subscriber     SubscriberConfig
	Publisher      PublisherConfig
	Breaker        CircuitBreakerConfig

	// Topics are published to and must fall under Stream.Subjects.
	Topics []string
}

// Transport bundles the publisher and subscriber the router and API use,
// plus the NATS resources that must be released with them.
type Transport struct {
	Publisher  *Publisher
	Subscriber message.Subscriber

	server *EmbeddedServer
	conn   *natsgo.Conn
	stream *StreamInitializer
	kind   string
}

// NewGoChannelTransport creates an in-process transport. Messages published
// with no subscriber are dropped.
func NewGoChannelTransport(logger watermill.LoggerAdapter) (*Transport, error) {
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
	pub, err := NewPublisher(ch, logger)
	if err != nil {
		return nil, err
	}
	return &Transport{Publisher: pub, Subscriber: ch, kind: "gochannel"}, nil
}

// NewTransport creates the configured transport. With NATS enabled it
// optionally starts the embedded server, ensures the stream exists and
// connects a circuit-broken publisher and a durable subscriber.
func NewTransport(ctx context.Context, cfg TransportConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}
	if !cfg.NATSEnabled {
		logging.Info().Msg("NATS disabled, using in-process message transport")
		return NewGoChannelTransport(logger)
	}

	t := &Transport{kind: "nats"}
	url := cfg.URL

	if cfg.EmbeddedServer {
		srv, err := NewEmbeddedServer(&cfg.Server)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		t.server = srv
		url = srv.ClientURL()
	}

	nc, err := natsgo.Connect(url, natsgo.Name("chronicle-stream-init"))
	if err != nil {
		_ = t.cleanup(ctx)
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	t.conn = nc

	js, err := jetstream.New(nc)
	if err != nil {
		_ = t.cleanup(ctx)
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	t.stream, err = NewStreamInitializer(js, &cfg.Stream, cfg.Topics...)
	if err != nil {
		_ = t.cleanup(ctx)
		return nil, err
	}
	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	created, err := t.stream.EnsureStream(initCtx)
	if err != nil {
		_ = t.cleanup(ctx)
		return nil, err
	}

	pubCfg := cfg.Publisher
	pubCfg.URL = url
	t.Publisher, err = NewNATSPublisher(pubCfg, logger)
	if err != nil {
		_ = t.cleanup(ctx)
		return nil, err
	}
	t.Publisher.SetCircuitBreaker(NewCircuitBreaker(cfg.Breaker))

	subCfg := cfg.Subscriber
	subCfg.URL = url
	subCfg.StreamName = cfg.Stream.Name
	t.Subscriber, err = NewNATSSubscriber(&subCfg, logger)
	if err != nil {
		_ = t.cleanup(ctx)
		return nil, err
	}

	logging.Info().
		Str("url", url).
		Str("stream", cfg.Stream.Name).
		Bool("embedded", cfg.EmbeddedServer).
		Bool("stream_created", created).
		Msg("NATS transport ready")
	return t, nil
}

// Kind returns "nats" or "gochannel".
func (t *Transport) Kind() string {
	return t.kind
}

// EmbeddedServer returns the embedded NATS server, or nil.
func (t *Transport) EmbeddedServer() *EmbeddedServer {
	return t.server
}

// RegisterHealth adds the transport's checks to h.
func (t *Transport) RegisterHealth(h *HealthChecker) {
	if t.server != nil {
		h.RegisterComponent("nats_server", t.server)
	}
	if t.stream != nil {
		h.RegisterComponent("stream", t.stream)
	}
	if t.conn != nil {
		conn := t.conn
		h.RegisterComponent("nats_connection", HealthCheckFunc(func(context.Context) ComponentHealth {
			if conn.IsConnected() {
				return ComponentHealth{Healthy: true, Message: conn.ConnectedUrl()}
			}
			return ComponentHealth{Error: "NATS connection " + conn.Status().String()}
		}))
	}
}

// Close releases the publisher, subscriber, connection and server, in that
// order.
func (t *Transport) Close(ctx context.Context) error {
	var errs []error
	if t.Publisher != nil {
		if err := t.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	// The in-process transport shares one GoChannel, already closed above.
	if t.Subscriber != nil && t.kind != "gochannel" {
		if err := t.Subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	errs = append(errs, t.cleanup(ctx))
	return errors.Join(errs...)
}

func (t *Transport) cleanup(ctx context.Context) error {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	if t.server != nil {
		err := t.server.Shutdown(ctx)
		t.server = nil
		if err != nil {
			return fmt.Errorf("shutdown embedded NATS: %w", err)
		}
	}
	return nil
}
