// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

/*
Package config provides centralized configuration management for Chronicle.

Configuration is loaded by LoadWithKoanf in three layers, later layers
overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: $CONFIG_PATH, ./config.yaml, ./config.yml,
    /etc/chronicle/config.yaml or /etc/chronicle/config.yml
 3. Environment variables

# Configuration Structure

  - ModelConfig: catalog/collection definition file
  - MigrationsConfig: migration table file
  - StoreConfig: entity store driver (badger, postgres, memory) and circuit breaker
  - ArchiveConfig: DuckDB archive of applied events
  - NATSConfig: JetStream transport, embedded server and router middleware
  - ServerConfig: HTTP listener, timeouts and rate limiting
  - LoggingConfig: zerolog level, format and caller info

# Environment Variables

Environment variables use flat names that are mapped onto the nested keys:

Model:
  - MODEL_PATH: model definition file (default: /etc/chronicle/model.yaml)
  - MIGRATIONS_PATH: migration table file (default: none)

Entity store:
  - STORE_DRIVER: badger, postgres or memory (default: badger)
  - BADGER_PATH: BadgerDB directory (default: /data/entities)
  - BADGER_SYNC_WRITES, BADGER_COMPRESSION, BADGER_GC_INTERVAL
  - POSTGRES_DSN or DATABASE_URL: PostgreSQL connection string
  - POSTGRES_MAX_CONNS: pool size (default: 10)
  - STORE_BREAKER_ENABLED, STORE_BREAKER_FAILURES, STORE_BREAKER_TIMEOUT

Archive:
  - ARCHIVE_ENABLED: keep a DuckDB log of applied events (default: true)
  - DUCKDB_PATH: archive file (default: /data/archive.duckdb)

NATS:
  - NATS_ENABLED: use JetStream (default: true); false uses an in-process channel
  - NATS_URL, NATS_EMBEDDED, NATS_STORE_DIR, NATS_STREAM
  - NATS_IMPORT_TOPIC (default: chronicle.import)
  - NATS_DEAD_LETTER_TOPIC (default: chronicle.deadletter)
  - NATS_ROUTER_RETRY_COUNT, NATS_ROUTER_DEDUP_ENABLED, NATS_ROUTER_POISON_TOPIC

HTTP:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:8080), HTTP_TIMEOUT
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Logging:
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)
  - LOG_CALLER: include caller file:line (default: false)

# Validation

Config.Validate runs go-playground/validator struct tags through the
validation package and then the cross-field rules (driver-specific
requirements, topic names, rate limit window).
*/
package config
