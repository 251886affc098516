package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"LISTEN_ADDR", "DB_PATH", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "BALANCE_CACHE_TTL", "LOG_LEVEL", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.ListenAddr)
	}
	if cfg.DBPath != "./data/splitledger.db" {
		t.Errorf("unexpected db path %s", cfg.DBPath)
	}
	if cfg.CacheEnabled() {
		t.Error("cache should be disabled without REDIS_ADDR")
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("expected 5m TTL, got %v", cfg.CacheTTL)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected 10s shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected info, got %s", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("DB_PATH", "/tmp/ledger.db")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("BALANCE_CACHE_TTL", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SHUTDOWN_TIMEOUT", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != "127.0.0.1:9000" || cfg.DBPath != "/tmp/ledger.db" {
		t.Errorf("unexpected addresses: %+v", cfg)
	}
	if !cfg.CacheEnabled() || cfg.RedisPassword != "secret" || cfg.RedisDB != 3 {
		t.Errorf("unexpected redis settings: %+v", cfg)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("expected 30s TTL, got %v", cfg.CacheTTL)
	}
	if cfg.ShutdownTimeout != 2*time.Second {
		t.Errorf("expected 2s shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"REDIS_DB", "zero"},
		{"BALANCE_CACHE_TTL", "soon"},
		{"BALANCE_CACHE_TTL", "-1m"},
		{"SHUTDOWN_TIMEOUT", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
