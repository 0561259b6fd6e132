// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package reconcile is the synchronization core shared by every source adapter.

Given the parsed Activity of one source, an Orchestrator works through a fixed
sequence of stages:

	Idle -> Resolving -> Ratings -> Watched -> Watchlist -> Completed

with Cancelled reachable from every non-terminal stage. Within each intent
stage the categories are processed in the order movies, shows, episodes.

Components:

  - Resolver: tiered identity matching between a local record and a remote
    entry. Ids decide when both sides carry one; otherwise title and year must
    both be present and equal. AmbiguityPolicy controls title/year collisions.
  - EpisodeResolver: resolves episode records into canonical episode
    identities through an EpisodeLookup, memoized for the run.
  - Pipeline: per intent/category filtering against the remote comparison
    sets, with optional watchlist suppression against the watched set. Sets
    are fetched lazily and cached for the pass.
  - Uploader: fixed-size paging and sequential submission; each page becomes
    a SyncOutcome.
  - Gate: the cancellation token. It is checked at stage, category, lookup
    and page boundaries; calls already in flight run to completion.

Nothing here is fatal. Unavailable comparison sets disable de-duplication for
that step, failed pages are logged and skipped, unresolved episodes are
dropped and cancellation ends the run normally. Run only returns an error for
an illegal stage transition.
*/
package reconcile
