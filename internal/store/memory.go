// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package store

import (
	"context"
	"sync"

	"github.com/tomtom215/chronicle/internal/entity"
)

// MemoryStore keeps encoded records in a map. Records are encoded on Put so
// callers never share state with the store.
type MemoryStore struct {
	codec  *entity.Codec
	mu     sync.RWMutex
	data   map[entity.Key][]byte
	lastID int64
	closed bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(codec *entity.Codec) *MemoryStore {
	return &MemoryStore{codec: codec, data: make(map[entity.Key][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key entity.Key) (*entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	b, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return s.codec.Decode(b)
}

func (s *MemoryStore) Put(ctx context.Context, rec *entity.Record) error {
	b, err := s.codec.Encode(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data[rec.Key] = b
	return nil
}

func (s *MemoryStore) NextEventID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.lastID++
	return s.lastID, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) Driver() string { return DriverMemory }

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
