package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DefaultCollection != "default" {
		t.Fatalf("default collection name")
	}
	if cfg.Storage.Fsync != "interval" || cfg.Storage.FsyncIntervalMs != 5 {
		t.Fatalf("storage defaults: %+v", cfg.Storage)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("log defaults: %+v", cfg.Log)
	}
	if cfg.DataDir == "" {
		t.Fatalf("data dir must default")
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "revent.json")
	data := []byte(`{"dataDir":"/tmp/r","defaultCollection":"prod","storage":{"fsync":"always"},"log":{"level":"debug"}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/tmp/r" {
		t.Fatalf("expected /tmp/r")
	}
	if cfg.DefaultCollection != "prod" {
		t.Fatalf("expected prod")
	}
	if cfg.Storage.Fsync != "always" {
		t.Fatalf("expected always")
	}
	// Partial files keep defaults for unset fields.
	if cfg.Storage.FsyncIntervalMs != 5 {
		t.Fatalf("interval default lost")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Fatalf("log merge wrong: %+v", cfg.Log)
	}
}

func TestLoadRejectsYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "revent.yaml")
	if err := os.WriteFile(file, []byte("dataDir: /tmp/r"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(file); err == nil {
		t.Fatalf("yaml must be rejected")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	os.Setenv("REVENT_DATA_DIR", "/tmp/env")
	os.Setenv("REVENT_STORAGE_FSYNC", "never")
	os.Setenv("REVENT_STORAGE_FSYNC_INTERVAL_MS", "20")
	os.Setenv("REVENT_LOG_LEVEL", "warn")
	t.Cleanup(func() {
		os.Unsetenv("REVENT_DATA_DIR")
		os.Unsetenv("REVENT_STORAGE_FSYNC")
		os.Unsetenv("REVENT_STORAGE_FSYNC_INTERVAL_MS")
		os.Unsetenv("REVENT_LOG_LEVEL")
	})
	FromEnv(&cfg)
	if cfg.DataDir != "/tmp/env" {
		t.Fatalf("env override data dir")
	}
	if cfg.Storage.Fsync != "never" || cfg.Storage.FsyncIntervalMs != 20 {
		t.Fatalf("env override storage: %+v", cfg.Storage)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("env override log level")
	}
}

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	if got := DefaultDataDir(); got != filepath.Join("/tmp/xdg", "revent") {
		t.Fatalf("xdg override wrong: %s", got)
	}
}
