// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package reconcile

import (
	"context"
	"fmt"

	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
	"github.com/tomtom215/reelsync/internal/models"
)

type lookupResult struct {
	id models.ResolvedIdentity
	ok bool
}

// EpisodeResolver turns episode records into canonical identities. Results,
// including misses and lookup errors, are memoized for the lifetime of the
// resolver, which is one run.
type EpisodeResolver struct {
	lookup EpisodeLookup
	sink   StatusSink
	memo   map[string]lookupResult
}

// NewEpisodeResolver creates a resolver backed by lookup. A nil lookup
// resolves nothing.
func NewEpisodeResolver(lookup EpisodeLookup, sink StatusSink) *EpisodeResolver {
	if sink == nil {
		sink = LogSink{}
	}
	return &EpisodeResolver{
		lookup: lookup,
		sink:   sink,
		memo:   make(map[string]lookupResult),
	}
}

// Resolve returns the identity of an episode record. ok is false when the
// episode could not be resolved; that is not an error and the record should
// be dropped.
func (r *EpisodeResolver) Resolve(ctx context.Context, rec models.LocalRecord) (models.ResolvedIdentity, bool) {
	q, isEpisode := models.EpisodeQueryOf(rec)
	if !isEpisode || r.lookup == nil {
		return models.ResolvedIdentity{}, false
	}

	key := q.Key()
	if res, hit := r.memo[key]; hit {
		metrics.EpisodeLookupsTotal.WithLabelValues("cache_hit").Inc()
		return res.id, res.ok
	}

	id, ok, err := r.lookup.ResolveEpisode(ctx, q)
	switch {
	case err != nil:
		metrics.EpisodeLookupsTotal.WithLabelValues("error").Inc()
		logging.Ctx(ctx).Debug().Err(err).Str("episode", rec.String()).Msg("Episode lookup failed")
		r.sink.Notify(ctx, SeverityWarning, fmt.Sprintf("Could not look up %s: %v", rec, err))
		ok = false
	case !ok:
		metrics.EpisodeLookupsTotal.WithLabelValues("unresolved").Inc()
		logging.Ctx(ctx).Debug().Str("episode", rec.String()).Msg("Episode not found in catalog")
	default:
		metrics.EpisodeLookupsTotal.WithLabelValues("resolved").Inc()
	}

	if ok {
		id = fillIdentity(id, rec)
	} else {
		id = models.ResolvedIdentity{}
	}
	r.memo[key] = lookupResult{id: id, ok: ok}
	return id, ok
}

// ResolveAll resolves records in order and returns the resolved items plus
// the number dropped. The gate is checked before every lookup; cancelled is
// true when it stopped the loop.
func (r *EpisodeResolver) ResolveAll(gate *Gate, records []models.LocalRecord) (items []models.SyncItem, unresolved int, cancelled bool) {
	items = make([]models.SyncItem, 0, len(records))
	for _, rec := range records {
		if gate.Cancelled() {
			return items, unresolved, true
		}
		id, ok := r.Resolve(gate.CallContext(), rec)
		if !ok {
			unresolved++
			continue
		}
		items = append(items, models.SyncItem{Record: rec, Identity: id})
	}
	return items, unresolved, false
}

func fillIdentity(id models.ResolvedIdentity, rec models.LocalRecord) models.ResolvedIdentity {
	if id.NativeID == "" {
		id.NativeID = rec.NativeID()
	}
	if id.Title == "" {
		id.Title = rec.Title()
	}
	if id.Year == nil {
		id.Year = rec.YearPtr()
	}
	if id.Episode == nil {
		ref, _ := rec.Episode()
		id.Episode = &models.EpisodeCoordinates{
			Series: models.ShowRef{NativeID: ref.SeriesNativeID, Title: ref.SeriesTitle, Year: ref.SeriesYear},
			Season: ref.Season,
			Number: ref.Number,
		}
	}
	return id
}
