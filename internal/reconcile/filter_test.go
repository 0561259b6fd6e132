// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/reelsync/internal/models"
)

func titles(items []models.SyncItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Record.Title()
	}
	return out
}

func TestPipeline_IdempotentAgainstFullRemote(t *testing.T) {
	t.Parallel()

	items := manyMovies(30)
	cat := newFakeCatalog()
	for _, it := range items {
		cat.seed(models.IntentRating, models.CategoryMovie, entryOf(it.Identity))
	}

	p := NewPipeline(cat, NewResolver(AmbiguityFirst), &recordingSink{})
	res := p.Filter(context.Background(), models.IntentRating, models.CategoryMovie, items, false)
	if len(res.Items) != 0 {
		t.Errorf("expected nothing to sync, got %d", len(res.Items))
	}
	if res.AlreadyPresent != len(items) {
		t.Errorf("AlreadyPresent = %d, want %d", res.AlreadyPresent, len(items))
	}
}

func TestPipeline_PreservesOrderAndCategory(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	cat.seed(models.IntentWatchlist, models.CategoryMovie, movieEntry("B", 2001, ""))

	items := []models.SyncItem{
		movieItem("C", 2002, ""),
		showItem("Show", 2010, ""),
		movieItem("B", 2001, ""),
		movieItem("A", 2000, ""),
	}
	p := NewPipeline(cat, NewResolver(AmbiguityFirst), &recordingSink{})
	res := p.Filter(context.Background(), models.IntentWatchlist, models.CategoryMovie, items, false)

	got := titles(res.Items)
	want := []string{"C", "A"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Filter() = %v, want %v", got, want)
	}
}

func TestPipeline_WatchlistSuppression(t *testing.T) {
	t.Parallel()

	breakdown := models.RemoteEntry{
		Title: "The Wire", Year: intPtr(2002),
		Seasons: []models.WatchedSeason{{Number: 1, Episodes: []int{1, 2}}},
	}

	t.Run("episodes are season and episode aware", func(t *testing.T) {
		t.Parallel()
		cat := newFakeCatalog()
		cat.seed(models.IntentWatched, models.CategoryEpisode, breakdown)

		items := []models.SyncItem{
			episodeItem("The Wire", 2002, 1, 2, ""),
			episodeItem("The Wire", 2002, 1, 3, ""),
			episodeItem("The Wire", 2002, 2, 2, ""),
		}
		p := NewPipeline(cat, NewResolver(AmbiguityFirst), &recordingSink{})
		res := p.Filter(context.Background(), models.IntentWatchlist, models.CategoryEpisode, items, true)

		if res.SuppressedWatched != 1 {
			t.Errorf("SuppressedWatched = %d, want 1", res.SuppressedWatched)
		}
		if len(res.Items) != 2 {
			t.Fatalf("got %d items, want 2", len(res.Items))
		}
		for _, it := range res.Items {
			if ep := it.Identity.Episode; ep.Season == 1 && ep.Number == 2 {
				t.Error("S01E02 should have been suppressed")
			}
		}
	})

	t.Run("shows are suppressed when in the watched set", func(t *testing.T) {
		t.Parallel()
		cat := newFakeCatalog()
		cat.seed(models.IntentWatched, models.CategoryShow, breakdown)

		items := []models.SyncItem{showItem("The Wire", 2002, ""), showItem("Treme", 2010, "")}
		p := NewPipeline(cat, NewResolver(AmbiguityFirst), &recordingSink{})
		res := p.Filter(context.Background(), models.IntentWatchlist, models.CategoryShow, items, true)

		if got := titles(res.Items); len(got) != 1 || got[0] != "Treme" {
			t.Errorf("Filter() = %v, want [Treme]", got)
		}
	})

	t.Run("disabled suppression ignores watched set", func(t *testing.T) {
		t.Parallel()
		cat := newFakeCatalog()
		cat.seed(models.IntentWatched, models.CategoryShow, breakdown)

		p := NewPipeline(cat, NewResolver(AmbiguityFirst), &recordingSink{})
		res := p.Filter(context.Background(), models.IntentWatchlist, models.CategoryShow, []models.SyncItem{showItem("The Wire", 2002, "")}, false)
		if len(res.Items) != 1 {
			t.Errorf("got %d items, want 1", len(res.Items))
		}
		if cat.readCount(models.IntentWatched, models.CategoryShow) != 0 {
			t.Error("watched set should not be fetched")
		}
	})

	t.Run("suppression only applies to watchlist", func(t *testing.T) {
		t.Parallel()
		cat := newFakeCatalog()
		cat.seed(models.IntentWatched, models.CategoryShow, breakdown)

		p := NewPipeline(cat, NewResolver(AmbiguityFirst), &recordingSink{})
		res := p.Filter(context.Background(), models.IntentRating, models.CategoryShow, []models.SyncItem{showItem("The Wire", 2002, "")}, true)
		if len(res.Items) != 1 {
			t.Errorf("got %d items, want 1", len(res.Items))
		}
	})
}

func TestPipeline_UnavailableSet(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	cat.seed(models.IntentWatchlist, models.CategoryMovie, movieEntry("A", 2000, ""))
	cat.readErr[setKey{models.IntentWatchlist, models.CategoryMovie}] = errors.New("503")
	cat.readErr[setKey{models.IntentWatched, models.CategoryMovie}] = errors.New("503")

	sink := &recordingSink{}
	p := NewPipeline(cat, NewResolver(AmbiguityFirst), sink)
	items := []models.SyncItem{movieItem("A", 2000, ""), movieItem("B", 2001, "")}

	res := p.Filter(context.Background(), models.IntentWatchlist, models.CategoryMovie, items, true)
	if !res.DedupSkipped || !res.SuppressionSkipped {
		t.Errorf("expected both comparisons skipped: %+v", res)
	}
	if len(res.Items) != 2 {
		t.Errorf("got %d items, want all 2", len(res.Items))
	}
	if sink.count(SeverityWarning) != 2 {
		t.Errorf("got %d warnings, want 2", sink.count(SeverityWarning))
	}

	// The failure is cached for the pass.
	p.Filter(context.Background(), models.IntentWatchlist, models.CategoryMovie, items, true)
	if n := cat.readCount(models.IntentWatchlist, models.CategoryMovie); n != 1 {
		t.Errorf("read %d times, want 1", n)
	}
}

func TestPipeline_CacheAndInvalidate(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	p := NewPipeline(cat, NewResolver(AmbiguityFirst), &recordingSink{})
	items := []models.SyncItem{episodeItem("Lost", 2004, 1, 1, "")}

	p.Filter(context.Background(), models.IntentWatchlist, models.CategoryEpisode, items, true)
	p.Filter(context.Background(), models.IntentWatchlist, models.CategoryEpisode, items, true)
	if n := cat.readCount(models.IntentWatched, models.CategoryEpisode); n != 1 {
		t.Fatalf("watched episodes read %d times, want 1", n)
	}

	// A watched show upload invalidates the shared breakdown.
	p.Invalidate(models.IntentWatched, models.CategoryShow)
	cat.seed(models.IntentWatched, models.CategoryEpisode, models.RemoteEntry{
		Title: "Lost", Year: intPtr(2004),
		Seasons: []models.WatchedSeason{{Number: 1, Episodes: []int{1}}},
	})
	res := p.Filter(context.Background(), models.IntentWatchlist, models.CategoryEpisode, items, true)
	if n := cat.readCount(models.IntentWatched, models.CategoryEpisode); n != 2 {
		t.Errorf("watched episodes read %d times, want 2", n)
	}
	if res.SuppressedWatched != 1 {
		t.Errorf("SuppressedWatched = %d, want 1 after refetch", res.SuppressedWatched)
	}
}

func TestPartition(t *testing.T) {
	t.Parallel()

	items := []models.SyncItem{
		movieItem("M1", 2000, ""),
		episodeItem("Lost", 2004, 1, 1, ""),
		movieItem("M2", 2001, ""),
		showItem("S1", 2010, ""),
	}
	parts := Partition(items)
	if got := titles(parts[models.CategoryMovie]); len(got) != 2 || got[0] != "M1" || got[1] != "M2" {
		t.Errorf("movies = %v", got)
	}
	if len(parts[models.CategoryShow]) != 1 || len(parts[models.CategoryEpisode]) != 1 {
		t.Errorf("unexpected partition sizes: %d shows, %d episodes", len(parts[models.CategoryShow]), len(parts[models.CategoryEpisode]))
	}
}
