package config

import (
	"os"
	"strconv"
)

// FromEnv overlays REVENT_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("REVENT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("REVENT_DEFAULT_COLLECTION"); v != "" {
		cfg.DefaultCollection = v
	}
	if v := os.Getenv("REVENT_STORAGE_FSYNC"); v != "" {
		cfg.Storage.Fsync = v
	}
	if v := os.Getenv("REVENT_STORAGE_FSYNC_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.FsyncIntervalMs = n
		}
	}
	if v := os.Getenv("REVENT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("REVENT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
