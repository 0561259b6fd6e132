// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/reelsync/internal/models"
)

func intPtr(v int) *int { return &v }

func movieItem(title string, year int, imdb string) models.SyncItem {
	f := models.RecordFields{Category: models.CategoryMovie, Title: title, NativeID: imdb, Rating: 8}
	if year > 0 {
		f.Year = intPtr(year)
	}
	rec := models.MustLocalRecord(f)
	return models.SyncItem{Record: rec, Identity: models.IdentityOf(rec)}
}

func showItem(title string, year int, imdb string) models.SyncItem {
	f := models.RecordFields{Category: models.CategoryShow, Title: title, NativeID: imdb}
	if year > 0 {
		f.Year = intPtr(year)
	}
	rec := models.MustLocalRecord(f)
	return models.SyncItem{Record: rec, Identity: models.IdentityOf(rec)}
}

func episodeRecord(series string, year, season, number int) models.LocalRecord {
	return models.MustLocalRecord(models.RecordFields{
		Category: models.CategoryEpisode,
		Title:    fmt.Sprintf("%s %dx%d", series, season, number),
		Rating:   7,
		Episode:  &models.EpisodeRef{SeriesTitle: series, SeriesYear: intPtr(year), Season: season, Number: number},
	})
}

func episodeItem(series string, year, season, number int, canonical string) models.SyncItem {
	rec := episodeRecord(series, year, season, number)
	return models.SyncItem{Record: rec, Identity: models.ResolvedIdentity{
		Title:              rec.Title(),
		CanonicalEpisodeID: canonical,
		Episode: &models.EpisodeCoordinates{
			Series: models.ShowRef{Title: series, Year: intPtr(year)},
			Season: season,
			Number: number,
		},
	}}
}

func movieEntry(title string, year int, imdb string) models.RemoteEntry {
	e := models.RemoteEntry{Title: title, NativeID: imdb}
	if year > 0 {
		e.Year = intPtr(year)
	}
	return e
}

func manyMovies(n int) []models.SyncItem {
	items := make([]models.SyncItem, n)
	for i := range items {
		items[i] = movieItem(fmt.Sprintf("Movie %d", i), 2000, fmt.Sprintf("tt%07d", i+1))
	}
	return items
}

type write struct {
	intent   models.Intent
	category models.Category
	size     int
}

// fakeCatalog keeps remote sets in memory and applies accepted writes to
// them, so later reads see earlier uploads.
type fakeCatalog struct {
	mu      sync.Mutex
	sets    map[setKey][]models.RemoteEntry
	readErr map[setKey]error
	reads   map[setKey]int
	writes  []write

	// respond overrides the reply to a write. Returning nil, nil applies the
	// whole batch and reports success.
	respond func(n int, intent models.Intent, cat models.Category, items []models.SyncItem) (*models.SyncResponse, error)
	// afterWrite runs after every write with the 1-based write count.
	afterWrite func(n int)
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		sets:    make(map[setKey][]models.RemoteEntry),
		readErr: make(map[setKey]error),
		reads:   make(map[setKey]int),
	}
}

func (f *fakeCatalog) seed(intent models.Intent, cat models.Category, entries ...models.RemoteEntry) {
	f.sets[setKey{intent, cat}] = append(f.sets[setKey{intent, cat}], entries...)
}

func (f *fakeCatalog) read(intent models.Intent, cat models.Category) ([]models.RemoteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := setKey{intent, cat}
	f.reads[key]++
	if err := f.readErr[key]; err != nil {
		return nil, err
	}
	return append([]models.RemoteEntry(nil), f.sets[key]...), nil
}

func (f *fakeCatalog) readCount(intent models.Intent, cat models.Category) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[setKey{intent, cat}]
}

func (f *fakeCatalog) writeLog() []write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]write(nil), f.writes...)
}

func (f *fakeCatalog) Rated(_ context.Context, cat models.Category) ([]models.RemoteEntry, error) {
	return f.read(models.IntentRating, cat)
}

func (f *fakeCatalog) Watched(_ context.Context, cat models.Category) ([]models.RemoteEntry, error) {
	return f.read(models.IntentWatched, cat)
}

func (f *fakeCatalog) Watchlist(_ context.Context, cat models.Category) ([]models.RemoteEntry, error) {
	return f.read(models.IntentWatchlist, cat)
}

func (f *fakeCatalog) write(ctx context.Context, intent models.Intent, cat models.Category, items []models.SyncItem) (*models.SyncResponse, error) {
	if ctx.Err() != nil {
		return nil, errors.New("write issued with a cancelled context")
	}
	f.mu.Lock()
	f.writes = append(f.writes, write{intent: intent, category: cat, size: len(items)})
	n := len(f.writes)
	respond := f.respond
	f.mu.Unlock()

	var (
		resp *models.SyncResponse
		err  error
	)
	if respond != nil {
		resp, err = respond(n, intent, cat, items)
	}
	if resp == nil && err == nil {
		f.mu.Lock()
		for _, it := range items {
			f.sets[setKey{intent, cat}] = append(f.sets[setKey{intent, cat}], entryOf(it.Identity))
		}
		f.mu.Unlock()
		resp = &models.SyncResponse{}
	}
	if f.afterWrite != nil {
		f.afterWrite(n)
	}
	return resp, err
}

func (f *fakeCatalog) AddRatings(ctx context.Context, cat models.Category, items []models.SyncItem) (*models.SyncResponse, error) {
	return f.write(ctx, models.IntentRating, cat, items)
}

func (f *fakeCatalog) AddToWatched(ctx context.Context, cat models.Category, items []models.SyncItem) (*models.SyncResponse, error) {
	return f.write(ctx, models.IntentWatched, cat, items)
}

func (f *fakeCatalog) AddToWatchlist(ctx context.Context, cat models.Category, items []models.SyncItem) (*models.SyncResponse, error) {
	return f.write(ctx, models.IntentWatchlist, cat, items)
}

func notFound(cat models.Category, n int) *models.SyncResponse {
	resp := &models.SyncResponse{}
	switch cat {
	case models.CategoryMovie:
		resp.NotFound.Movies = n
	case models.CategoryShow:
		resp.NotFound.Shows = n
	case models.CategoryEpisode:
		resp.NotFound.Episodes = n
	}
	return resp
}

// fakeLookup resolves episodes from a table keyed by "series|season|number".
type fakeLookup struct {
	mu       sync.Mutex
	episodes map[string]string
	failFor  map[string]bool
	calls    int
}

func (l *fakeLookup) ResolveEpisode(_ context.Context, q models.EpisodeQuery) (models.ResolvedIdentity, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	key := fmt.Sprintf("%s|%d|%d", q.SeriesTitle, q.Season, q.Number)
	if l.failFor[key] {
		return models.ResolvedIdentity{}, false, errors.New("lookup unavailable")
	}
	canonical, ok := l.episodes[key]
	if !ok {
		return models.ResolvedIdentity{}, false, nil
	}
	return models.ResolvedIdentity{
		CanonicalEpisodeID: canonical,
		Episode: &models.EpisodeCoordinates{
			Series: models.ShowRef{Title: q.SeriesTitle, Year: q.SeriesYear},
			Season: q.Season,
			Number: q.Number,
		},
	}, true, nil
}

func (l *fakeLookup) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// recordingSink collects status messages.
type recordingSink struct {
	mu   sync.Mutex
	msgs []string
	sevs []Severity
}

func (s *recordingSink) Notify(_ context.Context, sev Severity, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	s.sevs = append(s.sevs, sev)
}

func (s *recordingSink) count(sev Severity) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.sevs {
		if v == sev {
			n++
		}
	}
	return n
}
