// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/chronicle/internal/logging"
	"github.com/tomtom215/chronicle/internal/metrics"
)

// Message metadata keys set on published import messages.
const (
	MetadataCatalogue     = "catalogue"
	MetadataCollection    = "collection"
	MetadataProcessID     = "process_id"
	MetadataCorrelationID = "correlation_id"
)

// Publisher wraps a Watermill publisher with circuit breaker protection
// and Nats-Msg-Id tagging. It implements message.Publisher so it can be
// handed to router middleware.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	mu             sync.RWMutex
	closed         bool
	logger         watermill.LoggerAdapter
}

// NewPublisher wraps an existing Watermill publisher (NATS or gochannel).
func NewPublisher(pub message.Publisher, logger watermill.LoggerAdapter) (*Publisher, error) {
	if pub == nil {
		return nil, ErrNilPublisher
	}
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}
	return &Publisher{publisher: pub, logger: logger}, nil
}

// NewNATSPublisher creates a JetStream publisher with message ID tracking
// so the stream's duplicate window drops producer retries.
func NewNATSPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}

	natsOpts := append(
		connOptions("chronicle-publisher", cfg.MaxReconnects, cfg.ReconnectWait, logger),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
	)

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // Stream is pre-created by StreamInitializer
			TrackMsgId:    cfg.EnableTrackMsgID,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return NewPublisher(pub, logger)
}

// SetCircuitBreaker configures the circuit breaker for publish operations.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[interface{}]) {
	p.circuitBreaker = cb
}

// Publish implements message.Publisher. Each message UUID doubles as its
// Nats-Msg-Id unless one is already set.
func (p *Publisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	for _, msg := range msgs {
		if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
			msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
		}
	}

	var err error
	if p.circuitBreaker != nil {
		_, err = p.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, p.publisher.Publish(topic, msgs...)
		})
	} else {
		err = p.publisher.Publish(topic, msgs...)
	}
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	for range msgs {
		metrics.RecordNATSPublish()
	}
	return nil
}

// PublishMessage encodes an import message and publishes it to topic.
// It returns the message ID assigned for deduplication.
func (p *Publisher) PublishMessage(ctx context.Context, topic string, m *Message) (string, error) {
	payload, err := m.Encode()
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(MetadataCatalogue, m.Header.Catalogue)
	msg.Metadata.Set(MetadataCollection, m.Header.Collection)
	msg.Metadata.Set(MetadataProcessID, m.Header.ProcessID)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataCorrelationID, id)
	}

	if err := p.Publish(topic, msg); err != nil {
		return "", err
	}
	return msg.UUID, nil
}

// Close gracefully shuts down the publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
