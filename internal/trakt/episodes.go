// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package trakt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/reelsync/internal/cache"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/models"
)

type showHit struct {
	show Show
	ok   bool
}

type episodeHit struct {
	show    Show
	episode Episode
	ok      bool
}

// EpisodeLookup resolves episode queries against the Trakt catalog.
//
// Series are found by IMDb id when known, otherwise by title search. The
// episode is then fetched by season and number. Episodes without coordinates
// are found through their own IMDb id. Hits and misses are cached across
// runs; transport errors are not.
type EpisodeLookup struct {
	api      API
	shows    *cache.LRU[showHit]
	episodes *cache.LRU[episodeHit]
}

// NewEpisodeLookup creates a lookup with LRU caches of the given size and TTL.
func NewEpisodeLookup(api API, size int, ttl time.Duration) *EpisodeLookup {
	return &EpisodeLookup{
		api:      api,
		shows:    cache.NewLRU[showHit](size, ttl),
		episodes: cache.NewLRU[episodeHit](size, ttl),
	}
}

// ResolveEpisode implements the engine's episode lookup. ok is false when the
// catalog has no such episode.
func (l *EpisodeLookup) ResolveEpisode(ctx context.Context, q models.EpisodeQuery) (models.ResolvedIdentity, bool, error) {
	if q.Number > 0 {
		show, ok, err := l.findShow(ctx, q)
		if err != nil {
			return models.ResolvedIdentity{}, false, err
		}
		if ok {
			hit, err := l.episodeAt(ctx, show, q.Season, q.Number)
			if err != nil {
				return models.ResolvedIdentity{}, false, err
			}
			if hit.ok {
				return identity(hit), true, nil
			}
		}
	}

	if q.EpisodeNativeID == "" {
		return models.ResolvedIdentity{}, false, nil
	}
	hit, err := l.episodeByIMDb(ctx, q.EpisodeNativeID)
	if err != nil {
		return models.ResolvedIdentity{}, false, err
	}
	if !hit.ok {
		return models.ResolvedIdentity{}, false, nil
	}
	return identity(hit), true, nil
}

func (l *EpisodeLookup) findShow(ctx context.Context, q models.EpisodeQuery) (Show, bool, error) {
	key := showKey(q)
	if hit, ok := l.shows.Get(key); ok {
		return hit.show, hit.ok, nil
	}

	var (
		results []SearchResult
		err     error
	)
	if q.SeriesNativeID != "" {
		results, err = l.api.SearchIMDb(ctx, q.SeriesNativeID, "show")
	} else {
		results, err = l.api.SearchShows(ctx, q.SeriesTitle)
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Show{}, false, fmt.Errorf("search show %q: %w", q.SeriesTitle, err)
	}

	show, ok := bestShow(results, q.SeriesTitle, q.SeriesYear, q.SeriesNativeID != "")
	l.shows.Add(key, showHit{show: show, ok: ok})
	if !ok {
		logging.Ctx(ctx).Debug().Str("series", q.SeriesTitle).Msg("Series not found on Trakt")
	}
	return show, ok, nil
}

func (l *EpisodeLookup) episodeAt(ctx context.Context, show Show, season, number int) (episodeHit, error) {
	sid := showID(show)
	key := fmt.Sprintf("%s|%d|%d", sid, season, number)
	if hit, ok := l.episodes.Get(key); ok {
		return hit, nil
	}

	ep, err := l.api.Episode(ctx, sid, season, number)
	switch {
	case errors.Is(err, ErrNotFound):
		hit := episodeHit{show: show}
		l.episodes.Add(key, hit)
		return hit, nil
	case err != nil:
		return episodeHit{}, fmt.Errorf("get %s S%02dE%02d: %w", show.Title, season, number, err)
	}

	hit := episodeHit{show: show, episode: *ep, ok: true}
	l.episodes.Add(key, hit)
	return hit, nil
}

func (l *EpisodeLookup) episodeByIMDb(ctx context.Context, imdbID string) (episodeHit, error) {
	key := "imdb:" + strings.ToLower(imdbID)
	if hit, ok := l.episodes.Get(key); ok {
		return hit, nil
	}

	results, err := l.api.SearchIMDb(ctx, imdbID, "episode")
	if err != nil && !errors.Is(err, ErrNotFound) {
		return episodeHit{}, fmt.Errorf("search episode %s: %w", imdbID, err)
	}

	var hit episodeHit
	for _, r := range results {
		if r.Episode != nil && r.Show != nil {
			hit = episodeHit{show: *r.Show, episode: *r.Episode, ok: true}
			break
		}
	}
	l.episodes.Add(key, hit)
	return hit, nil
}

// bestShow prefers an exact title and year match, then an exact title. A
// title search with no exact title is unresolved; an id search falls back to
// the first show, since Trakt titles can differ from the export's.
func bestShow(results []SearchResult, title string, year *int, byID bool) (Show, bool) {
	best, bestScore := -1, -1
	for i, r := range results {
		if r.Show == nil {
			continue
		}
		score := 0
		if strings.EqualFold(strings.TrimSpace(r.Show.Title), title) {
			score = 1
			if year != nil && r.Show.Year == *year {
				score = 2
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || (bestScore < 1 && !byID) {
		return Show{}, false
	}
	return *results[best].Show, true
}

func identity(hit episodeHit) models.ResolvedIdentity {
	return models.ResolvedIdentity{
		NativeID:           hit.episode.IDs.IMDB,
		Title:              hit.episode.Title,
		CanonicalEpisodeID: traktID(hit.episode.IDs.Trakt),
		Episode: &models.EpisodeCoordinates{
			Series: ShowRef(hit.show),
			Season: hit.episode.Season,
			Number: hit.episode.Number,
		},
	}
}

func showKey(q models.EpisodeQuery) string {
	if q.SeriesNativeID != "" {
		return "imdb:" + strings.ToLower(q.SeriesNativeID)
	}
	key := "title:" + strings.ToLower(q.SeriesTitle)
	if q.SeriesYear != nil {
		key += "|" + strconv.Itoa(*q.SeriesYear)
	}
	return key
}

func showID(s Show) string {
	switch {
	case s.IDs.Trakt != 0:
		return strconv.Itoa(s.IDs.Trakt)
	case s.IDs.Slug != "":
		return s.IDs.Slug
	default:
		return s.IDs.IMDB
	}
}
