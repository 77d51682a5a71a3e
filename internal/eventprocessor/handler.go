// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package eventprocessor

import (
	"context"
	"errors"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/tomtom215/chronicle/internal/events"
	"github.com/tomtom215/chronicle/internal/logging"
	"github.com/tomtom215/chronicle/internal/metrics"
)

// Dead-letter metadata keys.
const (
	MetadataError         = "error"
	MetadataErrorCategory = "error_category"
	MetadataRetryable     = "retryable"
	MetadataOriginalID    = "original_message_id"
	MetadataEventIndex    = "event_index"
)

// ImportHandler consumes import messages and applies them with a Processor.
//
// Error handling:
//   - Undecodable messages and rejected headers go to the dead-letter
//     topic whole, and are acked
//   - A failing event goes to the dead-letter topic as a one-event import
//     message, so it can be fixed and republished; its siblings still apply
//   - A failed dead-letter publish returns an error, which triggers the
//     router's retry and, once exhausted, the poison queue
type ImportHandler struct {
	processor *Processor
	publisher message.Publisher
	dlqTopic  string
	log       *logging.EventLogger
}

// NewImportHandler creates a handler. dlq may be nil, in which case
// failures are only logged and counted.
func NewImportHandler(p *Processor, dlq message.Publisher, dlqTopic string) (*ImportHandler, error) {
	if p == nil {
		return nil, errors.New("processor required")
	}
	if dlqTopic == "" {
		dlqTopic = DefaultDeadLetterTopic
	}
	return &ImportHandler{
		processor: p,
		publisher: dlq,
		dlqTopic:  dlqTopic,
		log:       logging.NewEventLogger(),
	}, nil
}

// Handle implements message.NoPublishHandlerFunc.
func (h *ImportHandler) Handle(msg *message.Message) error {
	metrics.RecordNATSConsume()

	ctx := msg.Context()
	if id := msg.Metadata.Get(MetadataCorrelationID); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}

	decoded, err := DecodeMessage(msg.Payload)
	if err != nil {
		metrics.RecordNATSParseFailed()
		return h.deadLetter(ctx, msg, msg.Payload, Classify(err), -1)
	}

	result, err := h.processor.Process(ctx, decoded)
	if err != nil {
		return h.deadLetter(ctx, msg, msg.Payload, Classify(err), -1)
	}

	for _, f := range result.Failures {
		single := &Message{Header: decoded.Header, Contents: []*events.Event{f.Payload}}
		payload, encErr := single.Encode()
		if encErr != nil {
			return NewPermanentError("encode dead letter", encErr)
		}
		if err := h.deadLetter(ctx, msg, payload, f.Err, f.Index); err != nil {
			return err
		}
	}
	return nil
}

// deadLetter publishes payload with the failure in its metadata. index is
// the failing event's position, or -1 for the whole message.
func (h *ImportHandler) deadLetter(ctx context.Context, orig *message.Message, payload []byte, cause error, index int) error {
	category := CategoryOf(cause)
	metrics.RecordDeadLetter()
	h.log.LogDLQEntry(ctx, orig.UUID, category.String(), cause)

	if h.publisher == nil {
		return nil
	}

	dl := message.NewMessage(uuid.NewString(), payload)
	dl.Metadata.Set(MetadataError, cause.Error())
	dl.Metadata.Set(MetadataErrorCategory, category.String())
	dl.Metadata.Set(MetadataRetryable, strconv.FormatBool(IsRetryableError(cause)))
	dl.Metadata.Set(MetadataOriginalID, orig.UUID)
	if index >= 0 {
		dl.Metadata.Set(MetadataEventIndex, strconv.Itoa(index))
	}
	for _, k := range []string{MetadataCatalogue, MetadataCollection, MetadataProcessID, MetadataCorrelationID} {
		if v := orig.Metadata.Get(k); v != "" {
			dl.Metadata.Set(k, v)
		}
	}

	if err := h.publisher.Publish(h.dlqTopic, dl); err != nil {
		return NewRetryableError("dead letter publish failed", err)
	}
	h.log.LogEventPublished(ctx, dl.UUID, h.dlqTopic)
	return nil
}
