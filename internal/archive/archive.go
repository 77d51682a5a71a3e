// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

// Package archive keeps an append-only DuckDB log of every applied event,
// used for audit queries and per-entity history.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/chronicle/internal/logging"
	"github.com/tomtom215/chronicle/internal/metrics"
)

// ErrDuplicateEvent is returned when an event id is archived twice.
var ErrDuplicateEvent = errors.New("event already archived")

// Record is one applied event.
type Record struct {
	EventID     int64          `json:"eventid"`
	Timestamp   time.Time      `json:"timestamp"`
	Catalogue   string         `json:"catalogue"`
	Collection  string         `json:"collection"`
	TID         string         `json:"tid"`
	Action      string         `json:"action"`
	Version     string         `json:"version"`
	Source      string         `json:"source"`
	Application string         `json:"application"`
	ProcessID   string         `json:"process_id"`
	Contents    map[string]any `json:"contents"`
}

// Config configures the archive database.
type Config struct {
	Path      string
	Threads   int
	MaxMemory string
}

// DuckDBArchive stores Records in a DuckDB file.
type DuckDBArchive struct {
	conn *sql.DB
}

// Open opens (or creates) the archive at cfg.Path.
func Open(ctx context.Context, cfg Config) (*DuckDBArchive, error) {
	if cfg.Path == "" {
		return nil, errors.New("archive path is required")
	}
	dir := filepath.Dir(cfg.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create archive directory %s: %w", dir, err)
		}
	}

	// Disable auto-install/auto-load so a restricted network cannot hang startup.
	params := []string{"access_mode=read_write", "autoinstall_known_extensions=false", "autoload_known_extensions=false"}
	if cfg.Threads > 0 {
		params = append(params, fmt.Sprintf("threads=%d", cfg.Threads))
	}
	if cfg.MaxMemory != "" {
		params = append(params, "max_memory="+cfg.MaxMemory)
	}
	conn, err := sql.Open("duckdb", cfg.Path+"?"+strings.Join(params, "&"))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	a := &DuckDBArchive{conn: conn}
	if err := a.initialize(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize archive: %w", err)
	}
	logging.Info().Str("path", cfg.Path).Msg("Event archive opened")
	return a, nil
}

func (a *DuckDBArchive) initialize(ctx context.Context) error {
	_, err := a.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			eventid     BIGINT PRIMARY KEY,
			timestamp   TIMESTAMP NOT NULL,
			catalogue   VARCHAR NOT NULL,
			collection  VARCHAR NOT NULL,
			tid         VARCHAR NOT NULL,
			action      VARCHAR NOT NULL,
			version     VARCHAR NOT NULL,
			source      VARCHAR,
			application VARCHAR,
			process_id  VARCHAR,
			contents    VARCHAR NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	_, err = a.conn.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_events_entity ON events(catalogue, collection, tid)`)
	if err != nil {
		return fmt.Errorf("create entity index: %w", err)
	}
	return nil
}

// Append archives one applied event.
func (a *DuckDBArchive) Append(ctx context.Context, rec Record) (err error) {
	start := time.Now()
	defer func() { metrics.RecordArchiveQuery("append", time.Since(start), err) }()

	contents := rec.Contents
	if contents == nil {
		contents = map[string]any{}
	}
	b, err := json.Marshal(contents)
	if err != nil {
		return fmt.Errorf("marshal contents: %w", err)
	}
	_, err = a.conn.ExecContext(ctx, `
		INSERT INTO events (eventid, timestamp, catalogue, collection, tid, action, version,
			source, application, process_id, contents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.EventID, rec.Timestamp.UTC(), rec.Catalogue, rec.Collection, rec.TID, rec.Action,
		rec.Version, rec.Source, rec.Application, rec.ProcessID, string(b))
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate key") || strings.Contains(err.Error(), "PRIMARY KEY") {
			return fmt.Errorf("%w: %d", ErrDuplicateEvent, rec.EventID)
		}
		return fmt.Errorf("insert event %d: %w", rec.EventID, err)
	}
	return nil
}

// History returns the archived events of one entity in event id order.
func (a *DuckDBArchive) History(ctx context.Context, catalogue, collection, tid string) (_ []Record, err error) {
	start := time.Now()
	defer func() { metrics.RecordArchiveQuery("history", time.Since(start), err) }()

	rows, err := a.conn.QueryContext(ctx, `
		SELECT eventid, timestamp, catalogue, collection, tid, action, version,
			COALESCE(source, ''), COALESCE(application, ''), COALESCE(process_id, ''), contents
		FROM events
		WHERE catalogue = ? AND collection = ? AND tid = ?
		ORDER BY eventid`, catalogue, collection, tid)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec      Record
			contents string
		)
		if err := rows.Scan(&rec.EventID, &rec.Timestamp, &rec.Catalogue, &rec.Collection, &rec.TID,
			&rec.Action, &rec.Version, &rec.Source, &rec.Application, &rec.ProcessID, &contents); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		dec := json.NewDecoder(strings.NewReader(contents))
		dec.UseNumber()
		if err := dec.Decode(&rec.Contents); err != nil {
			return nil, fmt.Errorf("decode contents of event %d: %w", rec.EventID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Counts returns the number of archived events per action.
func (a *DuckDBArchive) Counts(ctx context.Context) (_ map[string]int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordArchiveQuery("counts", time.Since(start), err) }()

	rows, err := a.conn.QueryContext(ctx, `SELECT action, COUNT(*) FROM events GROUP BY action`)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			action string
			n      int64
		)
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}
		counts[action] = n
	}
	return counts, rows.Err()
}

// Ping checks the connection.
func (a *DuckDBArchive) Ping(ctx context.Context) error {
	return a.conn.PingContext(ctx)
}

// Close closes the database.
func (a *DuckDBArchive) Close() error {
	if err := a.conn.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}
