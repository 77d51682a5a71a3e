// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package config

import (
	"fmt"

	"github.com/tomtom215/chronicle/internal/validation"
)

// Validate checks struct tags first, then the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateArchive(); err != nil {
		return err
	}

	if err := c.validateNATS(); err != nil {
		return err
	}

	return c.validateServer()
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case "badger":
		b := c.Store.Badger
		if b.Path == "" {
			return fmt.Errorf("BADGER_PATH is required when STORE_DRIVER=badger")
		}
		if b.NumCompactors < 2 {
			return fmt.Errorf("BADGER_NUM_COMPACTORS must be at least 2, got %d", b.NumCompactors)
		}
		if b.MemTableSize < 1<<20 {
			return fmt.Errorf("BADGER_MEMTABLE_SIZE must be at least 1MB, got %d", b.MemTableSize)
		}
		if b.GCRatio <= 0 || b.GCRatio >= 1 {
			return fmt.Errorf("BADGER_GC_RATIO must be between 0 and 1, got %v", b.GCRatio)
		}
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORE_DRIVER=postgres")
		}
		if err := validatePostgresDSN(c.Store.Postgres.DSN); err != nil {
			return fmt.Errorf("POSTGRES_DSN is invalid: %w", err)
		}
	}
	if c.Store.Breaker.Enabled && c.Store.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("STORE_BREAKER_FAILURES must be positive when the breaker is enabled")
	}
	return nil
}

func (c *Config) validateArchive() error {
	if c.Archive.Enabled && c.Archive.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required when ARCHIVE_ENABLED=true")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	if c.NATS.StreamName == "" {
		return fmt.Errorf("NATS_STREAM is required when NATS_ENABLED=true")
	}
	if c.NATS.ImportTopic == "" || c.NATS.DeadLetterTopic == "" {
		return fmt.Errorf("NATS_IMPORT_TOPIC and NATS_DEAD_LETTER_TOPIC are required")
	}
	if c.NATS.ImportTopic == c.NATS.DeadLetterTopic {
		return fmt.Errorf("NATS_DEAD_LETTER_TOPIC must differ from NATS_IMPORT_TOPIC")
	}
	if c.NATS.RouterPoisonQueueEnabled && c.NATS.RouterPoisonQueueTopic == "" {
		return fmt.Errorf("NATS_ROUTER_POISON_TOPIC is required when the poison queue is enabled")
	}
	if c.NATS.RouterDeduplicationEnabled && c.NATS.RouterDeduplicationTTL <= 0 {
		return fmt.Errorf("NATS_ROUTER_DEDUP_TTL must be positive when deduplication is enabled")
	}
	return nil
}

func (c *Config) validateServer() error {
	if !c.Server.RateLimitDisabled && c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	return nil
}
