// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package eventprocessor

import (
	"sync"

	"github.com/tomtom215/chronicle/internal/entity"
)

// entityLocks serializes the read-check-write of one entity. The HTTP sync
// path and the router consumers share a Processor, so two events for the
// same entity can otherwise pass the _last_event check together and the
// later Put overwrites the earlier one.
//
// Entries are reference counted and removed when the last holder unlocks,
// so the map only holds entities that are being applied right now.
type entityLocks struct {
	mu    sync.Mutex
	locks map[entity.Key]*entityLock
}

type entityLock struct {
	mu   sync.Mutex
	refs int
}

func newEntityLocks() *entityLocks {
	return &entityLocks{locks: make(map[entity.Key]*entityLock)}
}

// lock blocks until key is free and returns the matching unlock.
func (l *entityLocks) lock(key entity.Key) (unlock func()) {
	l.mu.Lock()
	el, ok := l.locks[key]
	if !ok {
		el = &entityLock{}
		l.locks[key] = el
	}
	el.refs++
	l.mu.Unlock()

	el.mu.Lock()
	return func() {
		el.mu.Unlock()
		l.mu.Lock()
		el.refs--
		if el.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *entityLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
