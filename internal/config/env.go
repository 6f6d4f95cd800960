// Package config provides centralized configuration management.
// All environment lookups for the workbench live here.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// DefaultPollInterval is used when FLOORBOARD_POLL_INTERVAL is unset or invalid.
const DefaultPollInterval = 30 * time.Second

// Env holds all floorboard environment variables.
type Env struct {
	// APIURL is the Simal scheduler base URL (SIMAL_API_URL)
	APIURL string

	// OperatorID identifies the planner on reschedule requests (SIMAL_USER_ID)
	OperatorID string

	// PollInterval is the refresh cadence (FLOORBOARD_POLL_INTERVAL, e.g. "15s")
	PollInterval time.Duration

	// LogLevel is the minimum structured log level (FLOORBOARD_LOG_LEVEL)
	LogLevel string

	// Home overrides the floorboard home directory (FLOORBOARD_HOME)
	Home string
}

var (
	env     *Env
	envOnce sync.Once
)

// Get returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Get() *Env {
	envOnce.Do(func() {
		env = &Env{
			APIURL:       getEnvDefault("SIMAL_API_URL", "http://localhost:8080"),
			OperatorID:   os.Getenv("SIMAL_USER_ID"),
			PollInterval: parseInterval(os.Getenv("FLOORBOARD_POLL_INTERVAL")),
			LogLevel:     getEnvDefault("FLOORBOARD_LOG_LEVEL", "info"),
			Home:         os.Getenv("FLOORBOARD_HOME"),
		}
	})
	return env
}

// Reset clears the cached environment (for testing).
func Reset() {
	envOnce = sync.Once{}
	env = nil
	pathsOnce = sync.Once{}
	paths = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseInterval accepts a Go duration ("15s") or a bare number of seconds.
func parseInterval(s string) time.Duration {
	if s == "" {
		return DefaultPollInterval
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return DefaultPollInterval
}

// Paths holds standard floorboard directory paths.
type Paths struct {
	// Home is the floorboard home directory (~/.floorboard)
	Home string

	// Data is the data directory (~/.floorboard/data); holds the audit db
	Data string

	// Logs is the log directory (~/.floorboard/logs)
	Logs string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		root := Get().Home
		if root == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				home = "."
			}
			root = filepath.Join(home, ".floorboard")
		}
		paths = &Paths{
			Home: root,
			Data: filepath.Join(root, "data"),
			Logs: filepath.Join(root, "logs"),
		}
	})
	return paths
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
