// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/tomtom215/chronicle/internal/entity"
	"github.com/tomtom215/chronicle/internal/logging"
)

const (
	prefixEntity = "entity:"
	keySequence  = "seq:event_id"

	// sequenceBandwidth is how many ids a Badger sequence leases at once.
	// Unused ids in a lease are skipped after a restart.
	sequenceBandwidth = 1000
)

// BadgerConfig tunes the embedded database.
type BadgerConfig struct {
	Path             string
	SyncWrites       bool
	Compression      bool
	MemTableSize     int64
	ValueLogFileSize int64
	NumCompactors    int
	GCRatio          float64
}

// Validate checks the configuration against BadgerDB's minimums.
func (c *BadgerConfig) Validate() error {
	if c.Path == "" {
		return errors.New("badger path is required")
	}
	if c.MemTableSize != 0 && c.MemTableSize < 1<<20 {
		return fmt.Errorf("badger memtable size must be at least 1MB, got %d", c.MemTableSize)
	}
	if c.NumCompactors != 0 && c.NumCompactors < 2 {
		return fmt.Errorf("badger requires at least 2 compactors, got %d", c.NumCompactors)
	}
	if c.GCRatio < 0 || c.GCRatio >= 1 {
		return fmt.Errorf("badger GC ratio must be in [0, 1), got %v", c.GCRatio)
	}
	return nil
}

// BadgerStore is an EntityStore on BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	seq    *badger.Sequence
	codec  *entity.Codec
	config BadgerConfig
	closed atomic.Bool
}

// OpenBadger opens (or creates) the database at cfg.Path.
func OpenBadger(cfg BadgerConfig, codec *entity.Codec) (*BadgerStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid badger config: %w", err)
	}
	s, err := openBadger(cfg, codec)
	if err != nil {
		return nil, err
	}
	logging.Info().
		Str("path", cfg.Path).
		Bool("sync_writes", cfg.SyncWrites).
		Bool("compression", cfg.Compression).
		Msg("Entity store opened")
	return s, nil
}

// OpenBadgerForTesting opens a store without validation.
// WARNING: Do not use in production code.
func OpenBadgerForTesting(path string, codec *entity.Codec) (*BadgerStore, error) {
	return openBadger(BadgerConfig{Path: path, NumCompactors: 2, GCRatio: 0.5}, codec)
}

func openBadger(cfg BadgerConfig, codec *entity.Codec) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	if cfg.MemTableSize > 0 {
		opts.MemTableSize = cfg.MemTableSize
	}
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	if cfg.NumCompactors > 0 {
		opts.NumCompactors = cfg.NumCompactors
	}
	if cfg.Compression {
		opts.Compression = options.Snappy
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	seq, err := db.GetSequence([]byte(keySequence), sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open event id sequence: %w", err)
	}
	if cfg.GCRatio == 0 {
		cfg.GCRatio = 0.5
	}
	return &BadgerStore{db: db, seq: seq, codec: codec, config: cfg}, nil
}

func entityKey(key entity.Key) []byte {
	return []byte(prefixEntity + key.String())
}

func (s *BadgerStore) Get(ctx context.Context, key entity.Key) (*entity.Record, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	defer observe(DriverBadger, "get", time.Now())

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entityKey(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read entity %s: %w", key, err)
	}
	return s.codec.Decode(data)
}

func (s *BadgerStore) Put(ctx context.Context, rec *entity.Record) error {
	if s.closed.Load() {
		return ErrClosed
	}
	defer observe(DriverBadger, "put", time.Now())

	data, err := s.codec.Encode(rec)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entityKey(rec.Key), data)
	}); err != nil {
		return fmt.Errorf("write entity %s: %w", rec.Key, err)
	}
	return nil
}

func (s *BadgerStore) NextEventID(ctx context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	n, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next event id: %w", err)
	}
	// Sequences start at zero; event ids start at one.
	return int64(n) + 1, nil
}

// Count returns the number of records in a collection.
func (s *BadgerStore) Count(ctx context.Context, catalogue, collection string) (int, error) {
	prefix := []byte(prefixEntity + catalogue + ":" + collection + ":")
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	return count, err
}

// RunGC reclaims value log space until Badger reports nothing to rewrite.
func (s *BadgerStore) RunGC() error {
	if s.closed.Load() {
		return ErrClosed
	}
	rewrites := 0
	for {
		err := s.db.RunValueLogGC(s.config.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			return fmt.Errorf("value log GC: %w", err)
		}
		rewrites++
	}
	if rewrites > 0 {
		logging.Debug().Int("rewrites", rewrites).Msg("Entity store value log GC completed")
	}
	return nil
}

func (s *BadgerStore) Driver() string { return DriverBadger }

// Close releases the id lease and closes the database.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.seq.Release(); err != nil {
		logging.Warn().Err(err).Msg("Failed to release event id sequence")
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("Entity store closed")
	return nil
}
