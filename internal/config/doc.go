// Package config loads runtime configuration from a JSON file with REVENT_*
// environment overrides and OS-aware default paths.
package config
