// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tomtom215/reelsync/internal/models"
)

func records(items ...models.SyncItem) []models.LocalRecord {
	out := make([]models.LocalRecord, len(items))
	for i, it := range items {
		out[i] = it.Record
	}
	return out
}

func testSettings() Settings {
	s := DefaultSettings()
	s.FailurePause = 0
	s.RejectPause = 0
	return s
}

func newTestOrchestrator(t *testing.T, s Settings, cat *fakeCatalog, lookup EpisodeLookup) *Orchestrator {
	t.Helper()
	o, err := New(s, Options{Catalog: cat, Lookup: lookup, Sink: &recordingSink{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func runOnce(t *testing.T, o *Orchestrator, activity models.Activity) *Report {
	t.Helper()
	gate := NewGate(context.Background())
	defer gate.Cancel()
	report, err := o.Run(gate, activity)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return report
}

func TestOrchestrator_StageOrder(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	lookup := &fakeLookup{episodes: map[string]string{"Lost|1|1": "9001"}}
	activity := models.Activity{
		Ratings:   []models.LocalRecord{episodeRecord("Lost", 2004, 1, 1), showItem("Lost", 2004, "").Record, movieItem("Heat", 1995, "").Record},
		Watched:   records(movieItem("Ronin", 1998, "")),
		Watchlist: records(showItem("Treme", 2010, ""), movieItem("Tenet", 2020, "")),
	}

	var (
		mu     sync.Mutex
		stages []Stage
	)
	o, err := New(testSettings(), Options{
		Catalog: cat,
		Lookup:  lookup,
		Sink:    &recordingSink{},
		Progress: func(p Progress) {
			mu.Lock()
			defer mu.Unlock()
			if len(stages) == 0 || stages[len(stages)-1] != p.Stage {
				stages = append(stages, p.Stage)
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	report := runOnce(t, o, activity)

	want := []write{
		{models.IntentRating, models.CategoryMovie, 1},
		{models.IntentRating, models.CategoryShow, 1},
		{models.IntentRating, models.CategoryEpisode, 1},
		{models.IntentWatched, models.CategoryMovie, 1},
		{models.IntentWatchlist, models.CategoryMovie, 1},
		{models.IntentWatchlist, models.CategoryShow, 1},
	}
	got := cat.writeLog()
	if len(got) != len(want) {
		t.Fatalf("got writes %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("write %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if report.Stage != StageCompleted || report.Cancelled {
		t.Errorf("final stage = %s, cancelled = %v", report.Stage, report.Cancelled)
	}
	wantStages := []Stage{StageResolving, StageRatings, StageWatched, StageWatchlist, StageCompleted}
	if len(stages) != len(wantStages) {
		t.Fatalf("stages = %v, want %v", stages, wantStages)
	}
	for i := range wantStages {
		if stages[i] != wantStages[i] {
			t.Errorf("stage %d = %s, want %s", i, stages[i], wantStages[i])
		}
	}
	if tot := report.Totals(); tot.Accepted != 6 || tot.Transmitted != 6 {
		t.Errorf("totals = %+v", tot)
	}
}

func TestOrchestrator_SecondRunIsNoop(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	activity := models.Activity{
		Ratings:   records(manyMovies(12)...),
		Watchlist: records(showItem("Treme", 2010, "")),
	}
	s := testSettings()
	s.BatchSize = 5

	first := runOnce(t, newTestOrchestrator(t, s, cat, nil), activity)
	if step, _ := first.Step(models.IntentRating, models.CategoryMovie); step.Pages != 3 || step.Accepted != 12 {
		t.Fatalf("first run ratings step = %+v", step)
	}
	writes := len(cat.writeLog())

	second := runOnce(t, newTestOrchestrator(t, s, cat, nil), activity)
	if len(cat.writeLog()) != writes {
		t.Errorf("second run wrote %d more batches", len(cat.writeLog())-writes)
	}
	if tot := second.Totals(); tot.ToSync != 0 || tot.AlreadyPresent != 13 {
		t.Errorf("second run totals = %+v", tot)
	}
}

func TestOrchestrator_WatchedUploadFeedsWatchlistSuppression(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	ronin := movieItem("Ronin", 1998, "")
	activity := models.Activity{
		Watched:   records(ronin),
		Watchlist: records(ronin, movieItem("Tenet", 2020, "")),
	}

	report := runOnce(t, newTestOrchestrator(t, testSettings(), cat, nil), activity)

	step, ok := report.Step(models.IntentWatchlist, models.CategoryMovie)
	if !ok {
		t.Fatal("missing watchlist step")
	}
	if step.SuppressedWatched != 1 || step.ToSync != 1 {
		t.Errorf("watchlist step = %+v", step)
	}
	if n := cat.readCount(models.IntentWatched, models.CategoryMovie); n != 2 {
		t.Errorf("watched movies read %d times, want 2", n)
	}
}

func TestOrchestrator_MarkRatedAsWatched(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	lookup := &fakeLookup{episodes: map[string]string{"Lost|1|1": "9001"}}
	heat := movieItem("Heat", 1995, "tt0113277")
	activity := models.Activity{
		Ratings: []models.LocalRecord{
			heat.Record,
			movieItem("Ronin", 1998, "").Record,
			showItem("Lost", 2004, "").Record,
			episodeRecord("Lost", 2004, 1, 1),
		},
		Watched: records(movieItem("HEAT", 1995, "tt0113277")),
	}
	s := testSettings()
	s.MarkRatedAsWatched = true

	report := runOnce(t, newTestOrchestrator(t, s, cat, lookup), activity)

	movies, _ := report.Step(models.IntentWatched, models.CategoryMovie)
	if movies.Candidates != 2 {
		t.Errorf("watched movie candidates = %d, want 2 (Heat once, Ronin)", movies.Candidates)
	}
	episodes, _ := report.Step(models.IntentWatched, models.CategoryEpisode)
	if episodes.Candidates != 1 {
		t.Errorf("watched episode candidates = %d, want 1", episodes.Candidates)
	}
	shows, _ := report.Step(models.IntentWatched, models.CategoryShow)
	if shows.Candidates != 0 {
		t.Errorf("rated shows must not be marked watched, got %d", shows.Candidates)
	}
	if lookup.callCount() != 1 {
		t.Errorf("episode looked up %d times, want 1", lookup.callCount())
	}
}

func TestOrchestrator_DryRun(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	s := testSettings()
	s.DryRun = true
	s.BatchSize = 4

	report := runOnce(t, newTestOrchestrator(t, s, cat, nil), models.Activity{Ratings: records(manyMovies(10)...)})

	if n := len(cat.writeLog()); n != 0 {
		t.Errorf("dry run wrote %d batches", n)
	}
	step, _ := report.Step(models.IntentRating, models.CategoryMovie)
	if step.ToSync != 10 || step.Pages != 3 || step.Accepted != 0 {
		t.Errorf("dry run step = %+v", step)
	}
	if !report.DryRun {
		t.Error("report should be flagged as dry run")
	}
}

func TestOrchestrator_Cancellation(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	gate := NewGate(context.Background())
	cat.afterWrite = func(n int) {
		if n == 1 {
			gate.Cancel()
		}
	}
	s := testSettings()
	s.BatchSize = 250
	activity := models.Activity{
		Ratings:   records(manyMovies(640)...),
		Watchlist: records(movieItem("Tenet", 2020, "")),
	}

	report, err := newTestOrchestrator(t, s, cat, nil).Run(gate, activity)
	if err != nil {
		t.Fatalf("cancellation must not be an error: %v", err)
	}
	if !report.Cancelled || report.Stage != StageCancelled {
		t.Errorf("report stage = %s, cancelled = %v", report.Stage, report.Cancelled)
	}
	if n := len(cat.writeLog()); n != 1 {
		t.Errorf("got %d writes, want 1", n)
	}
	step, _ := report.Step(models.IntentRating, models.CategoryMovie)
	if step.Transmitted != 1 || step.Accepted != 250 {
		t.Errorf("ratings step = %+v", step)
	}
	if _, ok := report.Step(models.IntentWatchlist, models.CategoryMovie); ok {
		t.Error("watchlist should not run after cancellation")
	}
}

func TestOrchestrator_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	gate := NewGate(context.Background())
	gate.Cancel()

	report, err := newTestOrchestrator(t, testSettings(), cat, nil).Run(gate, models.Activity{Ratings: records(manyMovies(3)...)})
	if err != nil || report.Stage != StageCancelled {
		t.Errorf("Run() = stage %s, err %v", report.Stage, err)
	}
	if len(cat.writeLog()) != 0 {
		t.Error("cancelled run should not write")
	}
}

func TestOrchestrator_ScopeAndUnresolved(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	lookup := &fakeLookup{episodes: map[string]string{"Lost|1|1": "1"}}
	s := testSettings()
	s.Intents = []models.Intent{models.IntentRating}
	s.Categories = []models.Category{models.CategoryEpisode}

	activity := models.Activity{
		Ratings: []models.LocalRecord{
			movieItem("Heat", 1995, "").Record,
			episodeRecord("Lost", 2004, 1, 1),
			episodeRecord("Lost", 2004, 1, 2),
		},
		Watched: records(movieItem("Ronin", 1998, "")),
	}
	report := runOnce(t, newTestOrchestrator(t, s, cat, lookup), activity)

	if len(report.Steps) != 1 {
		t.Fatalf("got %d steps, want 1: %+v", len(report.Steps), report.Steps)
	}
	step := report.Steps[0]
	if step.Intent != models.IntentRating || step.Category != models.CategoryEpisode {
		t.Errorf("unexpected step %s/%s", step.Intent, step.Category)
	}
	if step.Candidates != 1 || step.Unresolved != 1 || step.Accepted != 1 {
		t.Errorf("episode step = %+v", step)
	}
	if report.Stage != StageCompleted {
		t.Errorf("stage = %s", report.Stage)
	}
}

func TestOrchestrator_UnavailableSetStillUploads(t *testing.T) {
	t.Parallel()

	cat := newFakeCatalog()
	cat.readErr[setKey{models.IntentRating, models.CategoryMovie}] = errors.New("timeout")

	report := runOnce(t, newTestOrchestrator(t, testSettings(), cat, nil), models.Activity{Ratings: records(manyMovies(3)...)})
	step, _ := report.Step(models.IntentRating, models.CategoryMovie)
	if !step.DedupSkipped || step.Accepted != 3 {
		t.Errorf("step = %+v", step)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	s.BatchSize = 0
	if _, err := New(s, Options{Catalog: newFakeCatalog()}); err == nil {
		t.Error("expected error for zero batch size")
	}
	s = DefaultSettings()
	s.Ambiguity = "loose"
	if _, err := New(s, Options{Catalog: newFakeCatalog()}); err == nil {
		t.Error("expected error for unknown ambiguity policy")
	}
	if _, err := New(DefaultSettings(), Options{}); err == nil {
		t.Error("expected error without catalog")
	}
}
