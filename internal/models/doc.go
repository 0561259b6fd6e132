// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package models defines the data shared by the source adapters, the
reconciliation engine and the Trakt client.

Key Components:

  - LocalRecord: one parsed activity entry (rating, watched, watchlist) from a
    source export. Built only through NewLocalRecord, which validates the
    fields; the value is immutable afterwards.
  - Activity: everything one source produced for a run, grouped by intent.
  - RemoteEntry: an item already present on Trakt for some intent. Watched
    shows carry a per-season episode breakdown.
  - ResolvedIdentity / SyncItem: the matching key of a record, and the record
    paired with that key, as used by the filter pipeline and the uploader.
  - SyncBatch / SyncResponse / SyncOutcome: one page of an upload, the remote
    reply for that page, and how it was interpreted.

Categories are movie, show and episode; intents are rating, watched and
watchlist. String comparison of titles and ids is case-insensitive everywhere
in the engine, so the models keep the original spelling for display and
payloads.
*/
package models
