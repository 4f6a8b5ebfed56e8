package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TickInterval() != time.Minute {
		t.Errorf("TickInterval = %v, want 1m", cfg.TickInterval())
	}
	if cfg.Notifications.MaxEntries != 50 {
		t.Errorf("MaxEntries = %d, want 50", cfg.Notifications.MaxEntries)
	}
	if cfg.Retention() != 7*24*time.Hour {
		t.Errorf("Retention = %v, want 168h", cfg.Retention())
	}
	if cfg.SuppressionWindow() != time.Hour {
		t.Errorf("SuppressionWindow = %v, want 1h", cfg.SuppressionWindow())
	}
	if cfg.Sync.Enabled {
		t.Error("sync should be disabled by default")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
storage:
  path: /tmp/custom.db
scheduler:
  interval_sec: 15
sync:
  enabled: true
  url: https://sync.example.com/api/sync
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Storage.Path != "/tmp/custom.db" {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.TickInterval() != 15*time.Second {
		t.Errorf("TickInterval = %v, want 15s", cfg.TickInterval())
	}
	if !cfg.Sync.Enabled || cfg.Sync.URL != "https://sync.example.com/api/sync" {
		t.Errorf("Sync = %+v", cfg.Sync)
	}
	// Untouched sections keep their defaults.
	if cfg.SyncInterval() != 5*time.Minute {
		t.Errorf("SyncInterval = %v, want 5m", cfg.SyncInterval())
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("NOVATASKS_SYNC_URL", "https://env.example.com")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Sync.URL != "https://env.example.com" {
		t.Errorf("Sync.URL = %q, want env value", cfg.Sync.URL)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg.Scheduler.IntervalSec = 20
	cfg.Sync.Enabled = true
	cfg.Sync.URL = "https://sync.example.com"
	cfg.Calendar.Name = "Work"

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig after save: %v", err)
	}
	if got.TickInterval() != 20*time.Second {
		t.Errorf("TickInterval = %v", got.TickInterval())
	}
	if !got.Sync.Enabled || got.Sync.URL != "https://sync.example.com" {
		t.Errorf("Sync = %+v", got.Sync)
	}
	if got.Calendar.Name != "Work" || got.Storage.Path != cfg.Storage.Path {
		t.Errorf("Calendar = %+v, Storage = %+v", got.Calendar, got.Storage)
	}
}
