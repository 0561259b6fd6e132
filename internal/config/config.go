// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

// Package config loads the reelsync configuration: struct defaults, then an
// optional YAML file, then environment variables. See koanf.go for the
// layering and the environment variable table.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/reelsync/internal/models"
)

// Config holds all application configuration
type Config struct {
	Trakt      TraktConfig      `koanf:"trakt"`
	Sync       SyncConfig       `koanf:"sync"`
	Letterboxd LetterboxdConfig `koanf:"letterboxd"`
	IMDb       IMDbConfig       `koanf:"imdb"`
	History    HistoryConfig    `koanf:"history"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// TraktConfig configures the Trakt API client.
type TraktConfig struct {
	BaseURL     string        `koanf:"base_url" validate:"required,url"`
	ClientID    string        `koanf:"client_id"`
	AccessToken string        `koanf:"access_token"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`

	// RateLimit is the sustained request rate in requests per second.
	RateLimit float64 `koanf:"rate_limit" validate:"gt=0"`
	RateBurst int     `koanf:"rate_burst" validate:"min=1"`

	LookupCacheSize int           `koanf:"lookup_cache_size" validate:"min=1"`
	LookupCacheTTL  time.Duration `koanf:"lookup_cache_ttl" validate:"gt=0"`
}

// HasCredentials reports whether the client id and token are set.
func (t TraktConfig) HasCredentials() bool {
	return t.ClientID != "" && t.AccessToken != ""
}

// SyncConfig holds the reconciliation settings shared by every site.
type SyncConfig struct {
	BatchSize                  int           `koanf:"batch_size" validate:"min=1,max=1000"`
	SuppressWatchlistIfWatched bool          `koanf:"suppress_watchlist_if_watched"`
	MarkRatedAsWatched         bool          `koanf:"mark_rated_as_watched"`
	FailurePause               time.Duration `koanf:"failure_pause" validate:"gte=0"`
	RejectPause                time.Duration `koanf:"reject_pause" validate:"gte=0"`
	AmbiguityPolicy            string        `koanf:"ambiguity_policy" validate:"oneof=first unique"`
	DryRun                     bool          `koanf:"dry_run"`
}

// LetterboxdConfig points at an unpacked Letterboxd data export.
type LetterboxdConfig struct {
	Enabled    bool     `koanf:"enabled"`
	ExportDir  string   `koanf:"export_dir" validate:"required_if=Enabled true"`
	Intents    []string `koanf:"intents"`
	Categories []string `koanf:"categories"`
	// WatchedOnReleaseDay sends "released" as the watch time of entries
	// without a diary date.
	WatchedOnReleaseDay bool `koanf:"watched_on_release_day"`
}

// IMDbConfig points at a directory holding IMDb ratings.csv and watchlist.csv.
type IMDbConfig struct {
	Enabled    bool     `koanf:"enabled"`
	ExportDir  string   `koanf:"export_dir" validate:"required_if=Enabled true"`
	Intents    []string `koanf:"intents"`
	Categories []string `koanf:"categories"`
}

// HistoryConfig configures the run history store.
type HistoryConfig struct {
	// Enabled turns run report persistence on.
	Enabled  bool   `koanf:"enabled"`
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
	// Keep is how many run reports are retained.
	Keep int `koanf:"keep" validate:"min=1"`
}

// ServerConfig configures the control API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Scope is the parsed intent and category restriction of one site.
type Scope struct {
	Intents    []models.Intent
	Categories []models.Category
}

// Site names.
const (
	SiteLetterboxd = "letterboxd"
	SiteIMDb       = "imdb"
)

// Sites lists the supported site names.
var Sites = []string{SiteLetterboxd, SiteIMDb}

// SiteScope returns the parsed scope of site.
func (c *Config) SiteScope(site string) (Scope, error) {
	switch strings.ToLower(site) {
	case SiteLetterboxd:
		return parseScope(c.Letterboxd.Intents, c.Letterboxd.Categories)
	case SiteIMDb:
		return parseScope(c.IMDb.Intents, c.IMDb.Categories)
	default:
		return Scope{}, fmt.Errorf("unknown site %q", site)
	}
}

func parseScope(intents, categories []string) (Scope, error) {
	var s Scope
	for _, raw := range intents {
		i, err := models.ParseIntent(raw)
		if err != nil {
			return Scope{}, err
		}
		s.Intents = append(s.Intents, i)
	}
	for _, raw := range categories {
		c, err := models.ParseCategory(raw)
		if err != nil {
			return Scope{}, err
		}
		s.Categories = append(s.Categories, c)
	}
	return s, nil
}
