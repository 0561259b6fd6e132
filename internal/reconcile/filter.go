// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
	"github.com/tomtom215/reelsync/internal/models"
)

type setKey struct {
	intent   models.Intent
	category models.Category
}

type remoteSet struct {
	entries []models.RemoteEntry
	err     error
}

// FilterResult is the output of one filter step.
type FilterResult struct {
	// Items still need to be sent, in input order.
	Items []models.SyncItem
	// AlreadyPresent counts items matched in the target set.
	AlreadyPresent int
	// SuppressedWatched counts watchlist items dropped because already watched.
	SuppressedWatched int
	// DedupSkipped is set when the target set was unavailable.
	DedupSkipped bool
	// SuppressionSkipped is set when the watched set was needed but unavailable.
	SuppressionSkipped bool
}

// Pipeline filters local items against the remote comparison sets.
//
// Sets are fetched on first use and cached, including failures, until
// Invalidate drops them. One Pipeline covers one run.
type Pipeline struct {
	reader   RemoteReader
	resolver *Resolver
	sink     StatusSink
	sets     map[setKey]remoteSet
}

// NewPipeline creates a pipeline reading from reader.
func NewPipeline(reader RemoteReader, resolver *Resolver, sink StatusSink) *Pipeline {
	if sink == nil {
		sink = LogSink{}
	}
	return &Pipeline{
		reader:   reader,
		resolver: resolver,
		sink:     sink,
		sets:     make(map[setKey]remoteSet),
	}
}

// Partition groups items by category, keeping order within each group.
func Partition(items []models.SyncItem) map[models.Category][]models.SyncItem {
	out := make(map[models.Category][]models.SyncItem, len(models.Categories))
	for _, it := range items {
		cat := it.Record.Category()
		out[cat] = append(out[cat], it)
	}
	return out
}

// Filter removes items already present remotely for intent. With
// suppressIfWatched on a watchlist step, items matched in the watched set are
// removed too; episodes only when their exact season and number are watched.
// Items not of category cat are ignored.
func (p *Pipeline) Filter(ctx context.Context, intent models.Intent, cat models.Category, items []models.SyncItem, suppressIfWatched bool) FilterResult {
	var res FilterResult
	candidates := make([]models.SyncItem, 0, len(items))
	for _, it := range items {
		if it.Record.Category() == cat {
			candidates = append(candidates, it)
		}
	}
	if len(candidates) == 0 {
		res.Items = candidates
		return res
	}

	target, err := p.set(ctx, intent, cat)
	if err != nil {
		res.DedupSkipped = true
		p.sink.Notify(ctx, SeverityWarning, fmt.Sprintf("Could not read remote %s %s, sending without de-duplication", intent, cat.Plural()))
	}

	var watched []models.RemoteEntry
	suppress := suppressIfWatched && intent == models.IntentWatchlist
	if suppress {
		watched, err = p.set(ctx, models.IntentWatched, cat)
		if err != nil {
			suppress = false
			res.SuppressionSkipped = true
			p.sink.Notify(ctx, SeverityWarning, fmt.Sprintf("Could not read watched %s, watchlist suppression skipped", cat.Plural()))
		}
	}

	res.Items = make([]models.SyncItem, 0, len(candidates))
	for _, it := range candidates {
		if !res.DedupSkipped && p.resolver.Contains(it.Identity, target) {
			res.AlreadyPresent++
			continue
		}
		if suppress && p.resolver.Contains(it.Identity, watched) {
			res.SuppressedWatched++
			continue
		}
		res.Items = append(res.Items, it)
	}

	metrics.RecordRecords(string(intent), string(cat), "already_present", res.AlreadyPresent)
	metrics.RecordRecords(string(intent), string(cat), "suppressed_watched", res.SuppressedWatched)
	logging.Ctx(ctx).Debug().
		Str("intent", string(intent)).
		Str("category", string(cat)).
		Int("candidates", len(candidates)).
		Int("already_present", res.AlreadyPresent).
		Int("suppressed_watched", res.SuppressedWatched).
		Int("to_sync", len(res.Items)).
		Msg("Filtered records")
	return res
}

// Invalidate drops the cached set for intent/category. Watched shows and
// watched episodes share one breakdown, so either drops both.
func (p *Pipeline) Invalidate(intent models.Intent, cat models.Category) {
	delete(p.sets, setKey{intent, cat})
	if intent == models.IntentWatched && (cat == models.CategoryShow || cat == models.CategoryEpisode) {
		delete(p.sets, setKey{intent, models.CategoryShow})
		delete(p.sets, setKey{intent, models.CategoryEpisode})
	}
}

func (p *Pipeline) set(ctx context.Context, intent models.Intent, cat models.Category) ([]models.RemoteEntry, error) {
	key := setKey{intent, cat}
	if s, ok := p.sets[key]; ok {
		return s.entries, s.err
	}

	start := time.Now()
	entries, err := fetchRemote(ctx, p.reader, intent, cat)
	metrics.RecordRemoteFetch(string(intent), string(cat), time.Since(start), err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("intent", string(intent)).
			Str("category", string(cat)).
			Msg("Remote comparison set unavailable")
		entries = nil
	}
	p.sets[key] = remoteSet{entries: entries, err: err}
	return entries, err
}
