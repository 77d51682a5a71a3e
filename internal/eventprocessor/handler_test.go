// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package eventprocessor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// failingPublisher rejects every publish.
type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return errors.New("broker down") }
func (failingPublisher) Close() error                              { return nil }

func subscribeDLQ(t *testing.T, ch *gochannel.GoChannel) <-chan *message.Message {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	msgs, err := ch.Subscribe(ctx, DefaultDeadLetterTopic)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	return msgs
}

func receive(t *testing.T, msgs <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case m := <-msgs:
		m.Ack()
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dead letter")
		return nil
	}
}

func TestNewImportHandler(t *testing.T) {
	if _, err := NewImportHandler(nil, nil, ""); err == nil {
		t.Error("nil processor should be rejected")
	}
	p, _, _ := newTestProcessor(t, nil)
	h, err := NewImportHandler(p, nil, "")
	if err != nil {
		t.Fatalf("NewImportHandler() error = %v", err)
	}
	if h.dlqTopic != DefaultDeadLetterTopic {
		t.Errorf("dlqTopic = %q, want default", h.dlqTopic)
	}
}

func TestImportHandler_AppliesMessage(t *testing.T) {
	p, s, _ := newTestProcessor(t, nil)
	h, _ := NewImportHandler(p, nil, "")

	msg := message.NewMessage("m1", importPayload("1.1", addJSON("1", "null", "A"), addJSON("2", "null", "B")))
	if err := h.Handle(msg); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("store holds %d records, want 2", s.Len())
	}
}

func TestImportHandler_DeadLettersFailedEvent(t *testing.T) {
	p, s, _ := newTestProcessor(t, nil)
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, nil)
	defer ch.Close()
	dlq := subscribeDLQ(t, ch)
	h, _ := NewImportHandler(p, ch, "")

	msg := message.NewMessage("m1", importPayload("1.1", addJSON("1", "null", "A"), modifyJSON("9", 4, "B")))
	msg.Metadata.Set(MetadataProcessID, "proc-1")
	if err := h.Handle(msg); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("store holds %d records, want 1", s.Len())
	}

	dl := receive(t, dlq)
	if dl.Metadata.Get(MetadataErrorCategory) != "ordering" {
		t.Errorf("error_category = %q, want ordering", dl.Metadata.Get(MetadataErrorCategory))
	}
	if dl.Metadata.Get(MetadataRetryable) != "true" {
		t.Errorf("retryable = %q, want true", dl.Metadata.Get(MetadataRetryable))
	}
	if dl.Metadata.Get(MetadataEventIndex) != "1" || dl.Metadata.Get(MetadataOriginalID) != "m1" {
		t.Errorf("index/original = %q/%q", dl.Metadata.Get(MetadataEventIndex), dl.Metadata.Get(MetadataOriginalID))
	}
	if dl.Metadata.Get(MetadataProcessID) != "proc-1" {
		t.Error("process id metadata not carried over")
	}

	// The dead letter is itself an import message holding only the failed event.
	replay, err := DecodeMessage(dl.Payload)
	if err != nil {
		t.Fatalf("DecodeMessage(dead letter) error = %v", err)
	}
	if len(replay.Contents) != 1 || replay.Contents[0].TID() != "9" {
		t.Errorf("dead letter contents = %+v", replay.Contents)
	}
	if replay.Header.ProcessID != "proc-1" {
		t.Errorf("dead letter header = %+v", replay.Header)
	}
}

func TestImportHandler_DeadLettersWholeMessage(t *testing.T) {
	tests := []struct {
		name         string
		payload      []byte
		wantCategory string
	}{
		{"undecodable", []byte("not json"), "validation"},
		{"unknown collection", []byte(`{"header":{"catalogue":"x","collection":"y","source":"s","timestamp":"2026-03-01T12:00:00Z","version":"0.1","process_id":"p"},"contents":[]}`), "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _ := newTestProcessor(t, nil)
			ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, nil)
			defer ch.Close()
			dlq := subscribeDLQ(t, ch)
			h, _ := NewImportHandler(p, ch, "")

			if err := h.Handle(message.NewMessage("m1", tt.payload)); err != nil {
				t.Fatalf("Handle() error = %v, want ack", err)
			}
			dl := receive(t, dlq)
			if string(dl.Payload) != string(tt.payload) {
				t.Errorf("payload = %q, want original", dl.Payload)
			}
			if dl.Metadata.Get(MetadataErrorCategory) != tt.wantCategory {
				t.Errorf("error_category = %q, want %s", dl.Metadata.Get(MetadataErrorCategory), tt.wantCategory)
			}
			if dl.Metadata.Get(MetadataEventIndex) != "" {
				t.Error("whole-message dead letter should carry no event index")
			}
		})
	}
}

func TestImportHandler_DeadLetterPublishFails(t *testing.T) {
	p, _, _ := newTestProcessor(t, nil)
	h, _ := NewImportHandler(p, failingPublisher{}, "")

	err := h.Handle(message.NewMessage("m1", []byte("garbage")))
	if !IsRetryableError(err) {
		t.Errorf("Handle() error = %v, want retryable", err)
	}
}
