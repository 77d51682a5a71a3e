// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/chronicle/config.yaml",
	"/etc/chronicle/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Path: "/etc/chronicle/model.yaml",
		},
		Migrations: MigrationsConfig{
			Path: "", // no migrations: only live-version events are accepted
		},
		Store: StoreConfig{
			Driver: "badger",
			Badger: BadgerConfig{
				Path:             "/data/entities",
				SyncWrites:       true,
				Compression:      true,
				MemTableSize:     16 << 20, // 16MB
				ValueLogFileSize: 64 << 20, // 64MB
				NumCompactors:    2,
				GCRatio:          0.5,
				GCInterval:       time.Hour,
			},
			Postgres: PostgresConfig{
				DSN:      "",
				MaxConns: 10,
			},
			Breaker: BreakerConfig{
				Enabled:          true,
				MaxRequests:      1,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		Archive: ArchiveConfig{
			Enabled:   true,
			Path:      "/data/archive.duckdb",
			Threads:   0, // 0 = DuckDB default
			MaxMemory: "1GB",
		},
		NATS: NATSConfig{
			Enabled:             true,
			URL:                 "nats://127.0.0.1:4222",
			EmbeddedServer:      true,
			StoreDir:            "/data/nats/jetstream",
			MaxMemory:           1 << 30,  // 1GB
			MaxStore:            10 << 30, // 10GB
			StreamName:          "CHRONICLE",
			StreamRetentionDays: 7,
			ImportTopic:         "chronicle.import",
			DeadLetterTopic:     "chronicle.deadletter",
			SubscribersCount:    1, // per-entity ordering needs a single consumer
			DurableName:         "chronicle-processor",
			QueueGroup:          "processors",
			// Router defaults (Watermill Router middleware)
			RouterRetryCount:           3,
			RouterRetryInitialInterval: 100 * time.Millisecond,
			RouterThrottlePerSecond:    0, // Unlimited
			RouterDeduplicationEnabled: true,
			RouterDeduplicationTTL:     5 * time.Minute,
			RouterPoisonQueueEnabled:   true,
			RouterPoisonQueueTopic:     "chronicle.poison",
			RouterCloseTimeout:         30 * time.Second,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			Timeout:           30 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			MaxBodyBytes:      32 << 20, // 32MB
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// STORE_DRIVER -> store.driver, NATS_URL -> nats.url
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps flat environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Model and migrations
	"model_path":      "model.path",
	"migrations_path": "migrations.path",

	// Entity store
	"store_driver":                  "store.driver",
	"badger_path":                   "store.badger.path",
	"badger_sync_writes":            "store.badger.sync_writes",
	"badger_compression":            "store.badger.compression",
	"badger_memtable_size":          "store.badger.memtable_size",
	"badger_vlog_size":              "store.badger.vlog_size",
	"badger_num_compactors":         "store.badger.num_compactors",
	"badger_gc_ratio":               "store.badger.gc_ratio",
	"badger_gc_interval":            "store.badger.gc_interval",
	"postgres_dsn":                  "store.postgres.dsn",
	"database_url":                  "store.postgres.dsn",
	"postgres_max_conns":            "store.postgres.max_conns",
	"store_breaker_enabled":         "store.breaker.enabled",
	"store_breaker_timeout":         "store.breaker.timeout",
	"store_breaker_failures":        "store.breaker.failure_threshold",
	"store_breaker_half_open_limit": "store.breaker.max_requests",

	// Archive
	"archive_enabled":   "archive.enabled",
	"duckdb_path":       "archive.path",
	"duckdb_threads":    "archive.threads",
	"duckdb_max_memory": "archive.max_memory",

	// NATS mappings
	"nats_enabled":           "nats.enabled",
	"nats_url":               "nats.url",
	"nats_embedded":          "nats.embedded_server",
	"nats_store_dir":         "nats.store_dir",
	"nats_max_memory":        "nats.max_memory",
	"nats_max_store":         "nats.max_store",
	"nats_stream":            "nats.stream_name",
	"nats_retention_days":    "nats.stream_retention_days",
	"nats_import_topic":      "nats.import_topic",
	"nats_dead_letter_topic": "nats.dead_letter_topic",
	"nats_subscribers":       "nats.subscribers_count",
	"nats_durable_name":      "nats.durable_name",
	"nats_queue_group":       "nats.queue_group",
	// Router configuration environment mappings
	"nats_router_retry_count":    "nats.router_retry_count",
	"nats_router_retry_interval": "nats.router_retry_initial_interval",
	"nats_router_throttle":       "nats.router_throttle_per_second",
	"nats_router_dedup_enabled":  "nats.router_deduplication_enabled",
	"nats_router_dedup_ttl":      "nats.router_deduplication_ttl",
	"nats_router_poison_enabled": "nats.router_poison_queue_enabled",
	"nats_router_poison_topic":   "nats.router_poison_queue_topic",
	"nats_router_close_timeout":  "nats.router_close_timeout",

	// Server mappings
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"http_max_body_bytes":   "server.max_body_bytes",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables are skipped so unrelated environment does not leak into
// the configuration.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
