// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	if cfg.Server.Port != 3857 {
		t.Errorf("Server.Port = %d, want 3857", cfg.Server.Port)
	}
	if cfg.Catalog.Enabled {
		t.Error("Catalog.Enabled should be false by default")
	}
	if cfg.Events.NATSURL != "" {
		t.Errorf("Events.NATSURL = %q, want empty (in-process)", cfg.Events.NATSURL)
	}
	if cfg.Recommend.DominantShare != 0.6 {
		t.Errorf("Recommend.DominantShare = %f, want 0.6", cfg.Recommend.DominantShare)
	}
	if cfg.Recommend.CacheTTL != 5*time.Minute {
		t.Errorf("Recommend.CacheTTL = %v, want 5m", cfg.Recommend.CacheTTL)
	}
	if cfg.Database.MaxMemory != "1GB" {
		t.Errorf("Database.MaxMemory = %q, want 1GB", cfg.Database.MaxMemory)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"HTTP_PORT", "server.port"},
		{"DUCKDB_PATH", "database.path"},
		{"CATALOG_CLIENT_SECRET", "catalog.client_secret"},
		{"NATS_URL", "events.nats_url"},
		{"RECOMMEND_MMR_LAMBDA", "recommend.mmr_lambda"},
		{"PROFILES_IN_MEMORY", "profiles.in_memory"},
		{"log_level", "logging.level"},
		{"HOME", ""},
		{"PATH", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// Every mapping must target a real koanf path; a typo would silently drop
// the variable.
func TestEnvMappingsTargetKnownPaths(t *testing.T) {
	t.Parallel()

	known := map[string]bool{}
	k := newDefaultsKoanf(t)
	for _, key := range k.Keys() {
		known[key] = true
	}
	for env, path := range envMappings {
		if !known[path] {
			t.Errorf("%s maps to unknown path %q", env, path)
		}
	}
}

func TestLoadFile_EnvVars(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example.org, https://b.example.org")
	t.Setenv("RECOMMEND_CACHE_TTL", "90s")
	t.Setenv("MOCK_SEED", "7")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example.org" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Recommend.CacheTTL != 90*time.Second {
		t.Errorf("Recommend.CacheTTL = %v, want 90s", cfg.Recommend.CacheTTL)
	}
	if cfg.Database.MockSeed != 7 {
		t.Errorf("Database.MockSeed = %d, want 7", cfg.Database.MockSeed)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
}

func TestLoadFile_ConfigFileAndOverride(t *testing.T) {
	configContent := `
server:
  port: 8888
  host: "127.0.0.1"

logging:
  level: "warn"

profiles:
  in_memory: true

recommend:
  scorer: mmr
  mmr_lambda: 0.5
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	t.Setenv("HTTP_PORT", "7777")

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (env beats file)", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if !cfg.Profiles.InMemory {
		t.Error("Profiles.InMemory should come from the file")
	}
	if cfg.Recommend.Scorer != "mmr" || cfg.Recommend.MMRLambda != 0.5 {
		t.Errorf("Recommend scorer = %q/%f", cfg.Recommend.Scorer, cfg.Recommend.MMRLambda)
	}
	if cfg.Database.Path != "/data/cadence.duckdb" {
		t.Errorf("Database.Path = %q, want default", cfg.Database.Path)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}

	t.Setenv("RECOMMEND_SCORER", "bandit")
	if _, err := LoadFile(""); err == nil {
		t.Error("expected validation error for unknown scorer")
	}
}

func TestFindConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 1234\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile() = %q, want %q", got, path)
	}

	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "nope.yaml"))
	if got := findConfigFile(); got == path {
		t.Error("findConfigFile() should ignore a missing CONFIG_PATH")
	}
}
