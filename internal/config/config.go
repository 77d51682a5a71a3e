// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package config

import "time"

// Config holds all application configuration. It is built once by
// LoadWithKoanf and shared read-only afterwards.
type Config struct {
	Model      ModelConfig      `koanf:"model"`
	Migrations MigrationsConfig `koanf:"migrations"`
	Store      StoreConfig      `koanf:"store"`
	Archive    ArchiveConfig    `koanf:"archive"`
	NATS       NATSConfig       `koanf:"nats"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ModelConfig points at the catalog/collection definition file.
type ModelConfig struct {
	// Path is a YAML or JSON model file.
	Path string `koanf:"path" validate:"required"`
}

// MigrationsConfig points at the migration table. An empty path means the
// service only accepts events already at the live version.
type MigrationsConfig struct {
	Path string `koanf:"path"`
}

// StoreConfig selects the entity store.
type StoreConfig struct {
	// Driver is badger, postgres or memory.
	Driver   string         `koanf:"driver" validate:"oneof=badger postgres memory"`
	Badger   BadgerConfig   `koanf:"badger"`
	Postgres PostgresConfig `koanf:"postgres"`
	Breaker  BreakerConfig  `koanf:"breaker"`
}

// BadgerConfig tunes the embedded BadgerDB entity store.
type BadgerConfig struct {
	// Path is the directory where BadgerDB stores its files.
	// Should be on a durable filesystem (not tmpfs).
	Path string `koanf:"path"`

	// SyncWrites forces fsync after every write.
	SyncWrites bool `koanf:"sync_writes"`

	// Compression enables Snappy block compression.
	Compression bool `koanf:"compression"`

	// MemTableSize is the size of each memtable in bytes.
	MemTableSize int64 `koanf:"memtable_size"`

	// ValueLogFileSize is the size of each value log file in bytes.
	ValueLogFileSize int64 `koanf:"vlog_size"`

	// NumCompactors is the number of compaction workers (minimum 2).
	NumCompactors int `koanf:"num_compactors"`

	// GCRatio is the discard ratio passed to value log GC.
	GCRatio float64 `koanf:"gc_ratio"`

	// GCInterval is the time between value log GC runs. Zero disables GC.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// PostgresConfig configures the PostgreSQL entity store.
type PostgresConfig struct {
	DSN      string `koanf:"dsn"`
	MaxConns int32  `koanf:"max_conns" validate:"min=0,max=1000"`
}

// BreakerConfig configures the circuit breaker around the entity store.
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// ArchiveConfig configures the DuckDB archive of applied events.
type ArchiveConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Path      string `koanf:"path"`
	Threads   int    `koanf:"threads" validate:"min=0"`
	MaxMemory string `koanf:"max_memory"`
}

// NATSConfig holds message transport settings.
type NATSConfig struct {
	// Enabled selects NATS JetStream. When false, messages travel over an
	// in-process channel and are lost on restart.
	Enabled bool `koanf:"enabled"`

	// URL is the NATS server connection URL.
	URL string `koanf:"url"`

	// EmbeddedServer runs a NATS server inside the process.
	// If false, expects external NATS server at URL.
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory.
	StoreDir string `koanf:"store_dir"`

	// MaxMemory is the maximum memory for JetStream in bytes.
	MaxMemory int64 `koanf:"max_memory"`

	// MaxStore is the maximum disk storage for JetStream in bytes.
	MaxStore int64 `koanf:"max_store"`

	// StreamName is the JetStream stream holding import messages.
	StreamName string `koanf:"stream_name"`

	// StreamRetentionDays is how long to keep messages.
	StreamRetentionDays int `koanf:"stream_retention_days" validate:"min=0"`

	// ImportTopic receives import messages.
	ImportTopic string `koanf:"import_topic"`

	// DeadLetterTopic receives events that failed to apply.
	DeadLetterTopic string `koanf:"dead_letter_topic"`

	// SubscribersCount is the number of concurrent message processors.
	SubscribersCount int `koanf:"subscribers_count" validate:"min=0,max=64"`

	// DurableName is the consumer durable name for message tracking.
	DurableName string `koanf:"durable_name"`

	// QueueGroup is the queue group for load balancing.
	QueueGroup string `koanf:"queue_group"`

	// RouterRetryCount is the maximum number of retries for failed messages.
	RouterRetryCount int `koanf:"router_retry_count" validate:"min=0"`

	// RouterRetryInitialInterval is the initial backoff interval for retries.
	RouterRetryInitialInterval time.Duration `koanf:"router_retry_initial_interval"`

	// RouterThrottlePerSecond limits messages processed per second (0 = unlimited).
	RouterThrottlePerSecond int `koanf:"router_throttle_per_second" validate:"min=0"`

	// RouterDeduplicationEnabled drops redelivered messages by UUID.
	RouterDeduplicationEnabled bool `koanf:"router_deduplication_enabled"`

	// RouterDeduplicationTTL is how long message ids are remembered.
	RouterDeduplicationTTL time.Duration `koanf:"router_deduplication_ttl"`

	// RouterPoisonQueueEnabled routes undecodable messages to RouterPoisonQueueTopic.
	RouterPoisonQueueEnabled bool `koanf:"router_poison_queue_enabled"`

	// RouterPoisonQueueTopic receives messages that exhausted their retries.
	RouterPoisonQueueTopic string `koanf:"router_poison_queue_topic"`

	// RouterCloseTimeout bounds graceful router shutdown.
	RouterCloseTimeout time.Duration `koanf:"router_close_timeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// MaxBodyBytes caps the size of a submitted message.
	MaxBodyBytes int64 `koanf:"max_body_bytes" validate:"min=0"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}
