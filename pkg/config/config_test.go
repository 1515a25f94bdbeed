package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/psdltools/scenograph/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Serve.Addr != ":8080" {
		t.Errorf("Serve.Addr = %q, want :8080", cfg.Serve.Addr)
	}
	if cfg.Cache.Backend != CacheBackendFile {
		t.Errorf("Cache.Backend = %q, want file", cfg.Cache.Backend)
	}
	if got := cfg.Cache.TTLOrDefault(); got != 24*time.Hour {
		t.Errorf("TTLOrDefault() = %v, want 24h", got)
	}
	if cfg.Cache.HasTTL() {
		t.Error("HasTTL() = true for unset ttl")
	}
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
[serve]
addr = ":9090"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "1h"

[layout]
direction = "LR"
node_width = 200.0
rank_spacing = 80.0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Serve.Addr != ":9090" {
		t.Errorf("Serve.Addr = %q", cfg.Serve.Addr)
	}
	if cfg.Cache.Backend != CacheBackendRedis || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if got := cfg.Cache.TTLOrDefault(); got != time.Hour {
		t.Errorf("TTLOrDefault() = %v, want 1h", got)
	}
	if !cfg.Cache.HasTTL() {
		t.Error("HasTTL() = false for explicit ttl")
	}
	if cfg.Layout.Direction != "LR" || cfg.Layout.NodeWidth != 200 || cfg.Layout.RankSpacing != 80 {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
[cache]
backend = "memcached"
`)
	_, err := Load(path)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Fatalf("Load() error = %v, want INVALID_FORMAT", err)
	}
}

func TestLoadRejectsUnknownDirection(t *testing.T) {
	path := writeConfig(t, `
[layout]
direction = "BT"
`)
	_, err := Load(path)
	if !errors.Is(err, errors.ErrCodeInvalidDirection) {
		t.Fatalf("Load() error = %v, want INVALID_DIRECTION", err)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := writeConfig(t, `[serve`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load() error = nil, want parse error")
	}
}
