package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected default address: %s", cfg.Server.Address)
	}
	if cfg.Clients.Collector.Timeout != 30*time.Second {
		t.Fatalf("unexpected collector timeout: %v", cfg.Clients.Collector.Timeout)
	}
	if cfg.Cache.Enabled {
		t.Fatal("cache should default to disabled")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  address: ":9090"
clients:
  collector:
    baseURL: "https://collector.example.com"
logging:
  level: debug
  json: true
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Fatalf("file override not applied: %s", cfg.Server.Address)
	}
	if cfg.Clients.Collector.BaseURL != "https://collector.example.com" {
		t.Fatalf("collector base URL not applied: %s", cfg.Clients.Collector.BaseURL)
	}
	if !cfg.Logging.JSON || cfg.Logging.Level != "debug" {
		t.Fatalf("logging settings not applied: %+v", cfg.Logging)
	}
	// Untouched sections keep their defaults.
	if cfg.Clients.Catalog.ResourcesPath != "/api/resources/list" {
		t.Fatalf("default lost on partial file: %s", cfg.Clients.Catalog.ResourcesPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("UDS_MONITOR_SERVER_ADDRESS", ":7070")
	t.Setenv("UDS_MONITOR_COLLECTOR_BASE_URL", "https://env.example.com")
	t.Setenv("UDS_MONITOR_CACHE_ENABLED", "true")
	t.Setenv("UDS_MONITOR_CACHE_CATALOG_TTL", "5m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Fatalf("env override not applied: %s", cfg.Server.Address)
	}
	if cfg.Clients.Collector.BaseURL != "https://env.example.com" {
		t.Fatalf("collector env override not applied: %s", cfg.Clients.Collector.BaseURL)
	}
	if !cfg.Cache.Enabled || cfg.Cache.CatalogTTL != 5*time.Minute {
		t.Fatalf("cache env overrides not applied: %+v", cfg.Cache)
	}
}
