package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	DataDir           string    `json:"dataDir"`
	DefaultCollection string    `json:"defaultCollection"`
	Storage           Storage   `json:"storage"`
	Log               LogConfig `json:"log"`
}

// Storage captures durability tuning for the Pebble-backed repository.
type Storage struct {
	// Fsync is one of "always", "interval", "never".
	Fsync           string `json:"fsync"`
	FsyncIntervalMs int    `json:"fsyncIntervalMs"`
}

// LogConfig controls process logging.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `json:"level"`
	// Format is "text" or "json".
	Format string `json:"format"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DataDir:           DefaultDataDir(),
		DefaultCollection: "default",
		Storage: Storage{
			Fsync:           "interval",
			FsyncIntervalMs: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a JSON file. If path is empty, returns
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return Config{}, errors.New("yaml config not supported; use JSON")
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
