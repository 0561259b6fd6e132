// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Command reelsync imports ratings, watch history and watchlists from site
exports (Letterboxd, IMDb) into a Trakt account.

# Commands

	reelsync sync letterboxd [--dry-run] [--json]   run one sync and print its report
	reelsync serve                                  run the control API under a supervisor
	reelsync history [run-id] [--limit N] [--json]  show stored run reports
	reelsync version

A sync reads the export, resolves episode identities against Trakt, filters
out what the account already has and uploads the rest in pages. Ctrl-C
cancels a running sync at the next page boundary; the partial report is
still printed and stored.

# Serve Mode

	reelsync (root supervisor)
	├── run-layer
	│   └── sync-runner   cancels and drains an active run on shutdown
	└── api-layer
	    └── http-server   /api/v1/... and /metrics

# Configuration

Koanf layers, highest priority wins:

	Environment variables > Config file (--config, CONFIG_PATH, ./reelsync.yaml) > Defaults

Core environment variables:

	TRAKT_CLIENT_ID=...          # Trakt application client id
	TRAKT_ACCESS_TOKEN=...       # OAuth access token of the account
	LETTERBOXD_ENABLED=true
	LETTERBOXD_EXPORT_DIR=/data/letterboxd
	IMDB_ENABLED=true
	IMDB_EXPORT_DIR=/data/imdb
	HISTORY_ENABLED=true         # false skips run report persistence
	HISTORY_PATH=/data/reelsync-history
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console
*/
package main
