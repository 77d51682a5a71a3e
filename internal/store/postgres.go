// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/chronicle/internal/entity"
	"github.com/tomtom215/chronicle/internal/logging"
)

// PostgresConfig configures the pgx pool.
type PostgresConfig struct {
	DSN      string
	MaxConns int32
}

// PostgresStore is an EntityStore on PostgreSQL.
type PostgresStore struct {
	pool  *pgxpool.Pool
	codec *entity.Codec
}

// OpenPostgres connects, pings and ensures the schema exists.
func OpenPostgres(ctx context.Context, cfg PostgresConfig, codec *entity.Codec) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres DSN is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := NewPostgresStore(pool, codec)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logging.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Str("database", poolCfg.ConnConfig.Database).
		Int32("max_conns", poolCfg.MaxConns).
		Msg("Entity store connected to PostgreSQL")
	return s, nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool, codec *entity.Codec) *PostgresStore {
	return &PostgresStore{pool: pool, codec: codec}
}

// EnsureSchema creates the entities table and the event id sequence.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS entities (
			catalogue  TEXT NOT NULL,
			collection TEXT NOT NULL,
			tid        TEXT NOT NULL,
			attributes JSONB NOT NULL DEFAULT '{}',
			last_event BIGINT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (catalogue, collection, tid)
		)`)
	if err != nil {
		return fmt.Errorf("create entities table: %w", err)
	}
	_, err = s.pool.Exec(ctx, `CREATE SEQUENCE IF NOT EXISTS chronicle_event_id START 1`)
	if err != nil {
		return fmt.Errorf("create event id sequence: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key entity.Key) (*entity.Record, error) {
	defer observe(DriverPostgres, "get", time.Now())

	var attrs []byte
	err := s.pool.QueryRow(ctx, `
		SELECT attributes FROM entities
		WHERE catalogue = $1 AND collection = $2 AND tid = $3`,
		key.Catalogue, key.Collection, key.TID).Scan(&attrs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read entity %s: %w", key, err)
	}

	doc := entity.Document{Key: key}
	if err := json.Unmarshal(attrs, &doc.Attributes); err != nil {
		return nil, fmt.Errorf("decode entity %s: %w", key, err)
	}
	return s.codec.FromDocument(&doc)
}

func (s *PostgresStore) Put(ctx context.Context, rec *entity.Record) error {
	defer observe(DriverPostgres, "put", time.Now())

	doc, err := s.codec.ToDocument(rec)
	if err != nil {
		return err
	}
	attrs, err := json.Marshal(doc.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO entities (catalogue, collection, tid, attributes, last_event, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, now())
		ON CONFLICT (catalogue, collection, tid) DO UPDATE
		SET attributes = EXCLUDED.attributes,
		    last_event = EXCLUDED.last_event,
		    updated_at = EXCLUDED.updated_at`,
		rec.Key.Catalogue, rec.Key.Collection, rec.Key.TID, string(attrs), rec.LastEvent())
	if err != nil {
		return fmt.Errorf("write entity %s: %w", rec.Key, err)
	}
	return nil
}

func (s *PostgresStore) NextEventID(ctx context.Context) (int64, error) {
	var id int64
	if err := s.pool.QueryRow(ctx, `SELECT nextval('chronicle_event_id')`).Scan(&id); err != nil {
		return 0, fmt.Errorf("next event id: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Driver() string { return DriverPostgres }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
