// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package trakt

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/reelsync/internal/models"
)

// Catalog adapts an API to the remote read/write interface of the sync engine.
type Catalog struct {
	api API
}

// NewCatalog creates a catalog backed by api.
func NewCatalog(api API) *Catalog {
	return &Catalog{api: api}
}

// Rated returns the user's rated items of cat.
func (c *Catalog) Rated(ctx context.Context, cat models.Category) ([]models.RemoteEntry, error) {
	items, err := c.api.Ratings(ctx, cat.Plural())
	if err != nil {
		return nil, fmt.Errorf("get rated %s: %w", cat.Plural(), err)
	}
	entries := make([]models.RemoteEntry, 0, len(items))
	for _, it := range items {
		if e, ok := entryOf(cat, it.Movie, it.Show, it.Episode); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Watched returns watched movies, or watched shows with their breakdown for
// both the show and the episode category.
func (c *Catalog) Watched(ctx context.Context, cat models.Category) ([]models.RemoteEntry, error) {
	if cat == models.CategoryMovie {
		movies, err := c.api.WatchedMovies(ctx)
		if err != nil {
			return nil, fmt.Errorf("get watched movies: %w", err)
		}
		entries := make([]models.RemoteEntry, 0, len(movies))
		for _, m := range movies {
			entries = append(entries, movieEntry(m.Movie))
		}
		return entries, nil
	}

	shows, err := c.api.WatchedShows(ctx)
	if err != nil {
		return nil, fmt.Errorf("get watched shows: %w", err)
	}
	entries := make([]models.RemoteEntry, 0, len(shows))
	for _, s := range shows {
		e := showEntry(s.Show)
		for _, season := range s.Seasons {
			ws := models.WatchedSeason{Number: season.Number, Episodes: make([]int, 0, len(season.Episodes))}
			for _, ep := range season.Episodes {
				ws.Episodes = append(ws.Episodes, ep.Number)
			}
			e.Seasons = append(e.Seasons, ws)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Watchlist returns the user's watchlist entries of cat.
func (c *Catalog) Watchlist(ctx context.Context, cat models.Category) ([]models.RemoteEntry, error) {
	items, err := c.api.Watchlist(ctx, cat.Plural())
	if err != nil {
		return nil, fmt.Errorf("get watchlist %s: %w", cat.Plural(), err)
	}
	entries := make([]models.RemoteEntry, 0, len(items))
	for _, it := range items {
		if e, ok := entryOf(cat, it.Movie, it.Show, it.Episode); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// AddRatings sends one batch of ratings.
func (c *Catalog) AddRatings(ctx context.Context, cat models.Category, items []models.SyncItem) (*models.SyncResponse, error) {
	return c.write(ctx, models.IntentRating, cat, items, c.api.AddRatings)
}

// AddToWatched sends one batch of history entries.
func (c *Catalog) AddToWatched(ctx context.Context, cat models.Category, items []models.SyncItem) (*models.SyncResponse, error) {
	return c.write(ctx, models.IntentWatched, cat, items, c.api.AddHistory)
}

// AddToWatchlist sends one batch of watchlist entries.
func (c *Catalog) AddToWatchlist(ctx context.Context, cat models.Category, items []models.SyncItem) (*models.SyncResponse, error) {
	return c.write(ctx, models.IntentWatchlist, cat, items, c.api.AddWatchlist)
}

func (c *Catalog) write(ctx context.Context, intent models.Intent, cat models.Category, items []models.SyncItem,
	send func(context.Context, SyncRequest) (*SyncResponse, error)) (*models.SyncResponse, error) {
	resp, err := send(ctx, BuildSyncRequest(intent, cat, items))
	if err != nil {
		return nil, err
	}
	return convertResponse(resp), nil
}

// BuildSyncRequest converts items into a request body for intent.
func BuildSyncRequest(intent models.Intent, cat models.Category, items []models.SyncItem) SyncRequest {
	var req SyncRequest
	for _, it := range items {
		rec := it.Record
		var rating int
		var ratedAt, watchedAt string
		switch intent {
		case models.IntentRating:
			rating = rec.Rating()
			ratedAt = isoTime(rec.AddedAt())
		case models.IntentWatched:
			if rec.WatchedOnRelease() {
				watchedAt = models.WatchedOnRelease
			} else {
				watchedAt = isoTime(rec.WatchedAt())
			}
		}

		switch cat {
		case models.CategoryMovie:
			m := SyncMovie{IDs: SyncIDs{IMDB: it.Identity.NativeID}, Rating: rating, RatedAt: ratedAt, WatchedAt: watchedAt}
			if m.IDs.IMDB == "" {
				m.Title, m.Year = it.Identity.Title, yearOf(it.Identity.Year)
			}
			req.Movies = append(req.Movies, m)
		case models.CategoryShow:
			s := SyncShow{IDs: SyncIDs{IMDB: it.Identity.NativeID}, Rating: rating, RatedAt: ratedAt}
			if s.IDs.IMDB == "" {
				s.Title, s.Year = it.Identity.Title, yearOf(it.Identity.Year)
			}
			req.Shows = append(req.Shows, s)
		case models.CategoryEpisode:
			ids := SyncIDs{IMDB: it.Identity.NativeID}
			if id, err := strconv.Atoi(it.Identity.CanonicalEpisodeID); err == nil {
				ids = SyncIDs{Trakt: id}
			}
			req.Episodes = append(req.Episodes, SyncEpisode{IDs: ids, Rating: rating, RatedAt: ratedAt, WatchedAt: watchedAt})
		}
	}
	return req
}

func convertResponse(resp *SyncResponse) *models.SyncResponse {
	return &models.SyncResponse{
		Added:    models.CategoryCounts{Movies: resp.Added.Movies, Shows: resp.Added.Shows, Episodes: resp.Added.Episodes},
		Existing: models.CategoryCounts{Movies: resp.Existing.Movies, Shows: resp.Existing.Shows, Episodes: resp.Existing.Episodes},
		NotFound: models.CategoryCounts{
			Movies:   len(resp.NotFound.Movies),
			Shows:    len(resp.NotFound.Shows),
			Episodes: len(resp.NotFound.Episodes),
		},
	}
}

func entryOf(cat models.Category, m *Movie, s *Show, ep *Episode) (models.RemoteEntry, bool) {
	switch {
	case cat == models.CategoryMovie && m != nil:
		return movieEntry(*m), true
	case cat == models.CategoryShow && s != nil:
		return showEntry(*s), true
	case cat == models.CategoryEpisode && ep != nil:
		e := models.RemoteEntry{
			CanonicalID: traktID(ep.IDs.Trakt),
			NativeID:    ep.IDs.IMDB,
			Title:       ep.Title,
			Season:      ep.Season,
			Number:      ep.Number,
		}
		if s != nil {
			ref := ShowRef(*s)
			e.Show = &ref
		}
		return e, true
	default:
		return models.RemoteEntry{}, false
	}
}

func movieEntry(m Movie) models.RemoteEntry {
	return models.RemoteEntry{CanonicalID: traktID(m.IDs.Trakt), NativeID: m.IDs.IMDB, Title: m.Title, Year: yearPtr(m.Year)}
}

func showEntry(s Show) models.RemoteEntry {
	return models.RemoteEntry{CanonicalID: traktID(s.IDs.Trakt), NativeID: s.IDs.IMDB, Title: s.Title, Year: yearPtr(s.Year)}
}

// ShowRef converts a Trakt show into the engine's series reference.
func ShowRef(s Show) models.ShowRef {
	return models.ShowRef{CanonicalID: traktID(s.IDs.Trakt), NativeID: s.IDs.IMDB, Title: s.Title, Year: yearPtr(s.Year)}
}

func traktID(id int) string {
	if id == 0 {
		return ""
	}
	return strconv.Itoa(id)
}

func yearPtr(y int) *int {
	if y == 0 {
		return nil
	}
	return &y
}

func yearOf(y *int) int {
	if y == nil {
		return 0
	}
	return *y
}

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
