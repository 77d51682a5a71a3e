// Chronicle - Mutation Event Replay and Schema Migration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chronicle

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Store.Driver != "badger" {
		t.Errorf("Store.Driver = %q, want badger", cfg.Store.Driver)
	}
	if !cfg.Store.Badger.SyncWrites || !cfg.Store.Badger.Compression {
		t.Error("Badger should default to sync writes with compression")
	}
	if cfg.NATS.SubscribersCount != 1 {
		t.Errorf("NATS.SubscribersCount = %d, want 1", cfg.NATS.SubscribersCount)
	}
	if cfg.NATS.ImportTopic != "chronicle.import" || cfg.NATS.DeadLetterTopic != "chronicle.deadletter" {
		t.Errorf("NATS topics = %q, %q", cfg.NATS.ImportTopic, cfg.NATS.DeadLetterTopic)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() error = %v", err)
	}
}

// chdirTemp moves into an empty directory so no stray config.yaml is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Store.Badger.GCInterval != time.Hour {
		t.Errorf("GCInterval = %v, want 1h", cfg.Store.Badger.GCInterval)
	}
	if cfg.NATS.RouterRetryInitialInterval != 100*time.Millisecond {
		t.Errorf("RouterRetryInitialInterval = %v", cfg.NATS.RouterRetryInitialInterval)
	}
}

func TestLoadWithKoanf_FileThenEnv(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "chronicle.yaml")
	yaml := `
model:
  path: /srv/model.yaml
migrations:
  path: /srv/migrations.yaml
store:
  driver: memory
nats:
  enabled: false
server:
  port: 9090
  rate_limit_window: 30s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9191")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"model path from file", cfg.Model.Path, "/srv/model.yaml"},
		{"migrations path from file", cfg.Migrations.Path, "/srv/migrations.yaml"},
		{"driver from file", cfg.Store.Driver, "memory"},
		{"nats disabled by file", cfg.NATS.Enabled, false},
		{"port from env beats file", cfg.Server.Port, 9191},
		{"duration from file", cfg.Server.RateLimitWindow, 30 * time.Second},
		{"level from file", cfg.Logging.Level, "debug"},
		{"format from env", cfg.Logging.Format, "console"},
		{"untouched default", cfg.Archive.MaxMemory, "1GB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadWithKoanf_InvalidConfig(t *testing.T) {
	chdirTemp(t)
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("STORE_DRIVER", "postgres")

	_, err := LoadWithKoanf()
	if err == nil || !strings.Contains(err.Error(), "POSTGRES_DSN") {
		t.Errorf("LoadWithKoanf() error = %v, want POSTGRES_DSN requirement", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"STORE_DRIVER", "store.driver"},
		{"DATABASE_URL", "store.postgres.dsn"},
		{"NATS_ROUTER_DEDUP_TTL", "nats.router_deduplication_ttl"},
		{"log_level", "logging.level"},
		{"HOME", ""},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))

	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty", got)
	}
	if err := os.WriteFile("config.yml", []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := findConfigFile(); got != "config.yml" {
		t.Errorf("findConfigFile() = %q, want config.yml", got)
	}
}
