// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package sources turns site exports into models.Activity.

Letterboxd exports (ratings.csv, watched.csv, diary.csv, watchlist.csv) only
contain movies. IMDb exports (ratings.csv, watchlist.csv) contain movies,
series and episodes; episodes are identified by their own IMDb id because the
export has no season or episode numbers.

Rows that cannot become a valid record are skipped and counted, never fatal.
A missing or unreadable export file is an error.
*/
package sources
