// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"reelsync.yaml",
	"config.yaml",
	"/etc/reelsync/config.yaml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Trakt: TraktConfig{
			BaseURL:         "https://api.trakt.tv",
			Timeout:         30 * time.Second,
			RateLimit:       3, // Trakt allows 1000 calls per 5 minutes
			RateBurst:       5,
			LookupCacheSize: 5000,
			LookupCacheTTL:  24 * time.Hour,
		},
		Sync: SyncConfig{
			BatchSize:                  250,
			SuppressWatchlistIfWatched: true,
			MarkRatedAsWatched:         false,
			FailurePause:               2 * time.Second,
			RejectPause:                time.Second,
			AmbiguityPolicy:            "first",
		},
		Letterboxd: LetterboxdConfig{
			Intents:    []string{"rating", "watched", "watchlist"},
			Categories: []string{"movie"},
		},
		IMDb: IMDbConfig{
			// watched only carries rated items when sync.mark_rated_as_watched is set
			Intents:    []string{"rating", "watched", "watchlist"},
			Categories: []string{"movie", "show", "episode"},
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "/data/reelsync-history",
			Keep: 50,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            3858,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       60,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the config file at path (or
// the first file found in the search paths when path is empty) and the
// environment, then validates it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional unless given explicitly)
	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"letterboxd.intents",
	"letterboxd.categories",
	"imdb.intents",
	"imdb.categories",
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	"trakt_base_url":          "trakt.base_url",
	"trakt_client_id":         "trakt.client_id",
	"trakt_access_token":      "trakt.access_token",
	"trakt_timeout":           "trakt.timeout",
	"trakt_rate_limit":        "trakt.rate_limit",
	"trakt_rate_burst":        "trakt.rate_burst",
	"trakt_lookup_cache_size": "trakt.lookup_cache_size",
	"trakt_lookup_cache_ttl":  "trakt.lookup_cache_ttl",

	"sync_batch_size":                    "sync.batch_size",
	"sync_suppress_watchlist_if_watched": "sync.suppress_watchlist_if_watched",
	"sync_mark_rated_as_watched":         "sync.mark_rated_as_watched",
	"sync_failure_pause":                 "sync.failure_pause",
	"sync_reject_pause":                  "sync.reject_pause",
	"sync_ambiguity_policy":              "sync.ambiguity_policy",
	"sync_dry_run":                       "sync.dry_run",

	"letterboxd_enabled":                "letterboxd.enabled",
	"letterboxd_export_dir":             "letterboxd.export_dir",
	"letterboxd_intents":                "letterboxd.intents",
	"letterboxd_categories":             "letterboxd.categories",
	"letterboxd_watched_on_release_day": "letterboxd.watched_on_release_day",

	"imdb_enabled":    "imdb.enabled",
	"imdb_export_dir": "imdb.export_dir",
	"imdb_intents":    "imdb.intents",
	"imdb_categories": "imdb.categories",

	"history_enabled":   "history.enabled",
	"history_path":      "history.path",
	"history_in_memory": "history.in_memory",
	"history_keep":      "history.keep",

	"http_host":         "server.host",
	"http_port":         "server.port",
	"http_timeout":      "server.write_timeout",
	"shutdown_timeout":  "server.shutdown_timeout",
	"cors_origins":      "server.cors_origins",
	"rate_limit":        "server.rate_limit",
	"rate_limit_window": "server.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
