// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package reconcile

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/models"
)

// Settings configure a run.
type Settings struct {
	BatchSize                  int
	SuppressWatchlistIfWatched bool
	// MarkRatedAsWatched adds rated movies and episodes to the watched stage.
	MarkRatedAsWatched bool
	FailurePause       time.Duration
	RejectPause        time.Duration
	Ambiguity          AmbiguityPolicy
	// Intents and Categories restrict the run. Empty means all.
	Intents    []models.Intent
	Categories []models.Category
	// DryRun filters and reports without writing.
	DryRun bool
}

// DefaultSettings returns the defaults used by the CLI and the API.
func DefaultSettings() Settings {
	return Settings{
		BatchSize:                  DefaultBatchSize,
		SuppressWatchlistIfWatched: true,
		FailurePause:               2 * time.Second,
		RejectPause:                time.Second,
		Ambiguity:                  AmbiguityFirst,
	}
}

// Validate checks the settings.
func (s Settings) Validate() error {
	if s.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", s.BatchSize)
	}
	if s.FailurePause < 0 || s.RejectPause < 0 {
		return errors.New("pauses must not be negative")
	}
	if _, err := ParseAmbiguityPolicy(string(s.Ambiguity)); err != nil {
		return err
	}
	return nil
}

// Progress describes where a run is. Page and Pages are zero outside uploads.
type Progress struct {
	Stage    Stage           `json:"stage"`
	Intent   models.Intent   `json:"intent,omitempty"`
	Category models.Category `json:"category,omitempty"`
	Page     int             `json:"page,omitempty"`
	Pages    int             `json:"pages,omitempty"`
}

// Options are the collaborators of an Orchestrator.
type Options struct {
	Catalog Catalog
	// Lookup resolves episodes. Without it every episode is unresolved.
	Lookup EpisodeLookup
	Sink   StatusSink
	// Progress is called synchronously on every stage, step and page. It must
	// not block.
	Progress func(Progress)
}

// Orchestrator runs the stages of one sync. Create one per run.
type Orchestrator struct {
	settings Settings
	catalog  Catalog
	lookup   EpisodeLookup
	sink     StatusSink
	progress func(Progress)
	resolver *Resolver
}

// New creates an orchestrator.
func New(settings Settings, opts Options) (*Orchestrator, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sync settings: %w", err)
	}
	if opts.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if opts.Sink == nil {
		opts.Sink = LogSink{}
	}
	if opts.Progress == nil {
		opts.Progress = func(Progress) {}
	}
	return &Orchestrator{
		settings: settings,
		catalog:  opts.Catalog,
		lookup:   opts.Lookup,
		sink:     opts.Sink,
		progress: opts.Progress,
		resolver: NewResolver(settings.Ambiguity),
	}, nil
}

func (o *Orchestrator) intentEnabled(i models.Intent) bool {
	return len(o.settings.Intents) == 0 || slices.Contains(o.settings.Intents, i)
}

func (o *Orchestrator) categoryEnabled(c models.Category) bool {
	return len(o.settings.Categories) == 0 || slices.Contains(o.settings.Categories, c)
}

// resolution is the output of the resolving stage.
type resolution struct {
	items      map[models.Intent][]models.SyncItem
	unresolved map[setKey]int
}

// Run executes the stages in order against activity. Cancellation through
// gate ends the run with StageCancelled and a nil error; whatever was sent
// stays sent. The returned report is never nil.
func (o *Orchestrator) Run(gate *Gate, activity models.Activity) (*Report, error) {
	ctx := gate.Context()
	log := logging.Ctx(ctx)
	report := &Report{
		RunID:     logging.RunIDFromContext(ctx),
		StartedAt: time.Now(),
		DryRun:    o.settings.DryRun,
	}
	var sm StageMachine

	finish := func(next Stage) (*Report, error) {
		err := o.advance(&sm, next)
		report.Stage = sm.Current()
		report.Cancelled = sm.Current() == StageCancelled
		report.FinishedAt = time.Now()
		report.Duration = report.FinishedAt.Sub(report.StartedAt)
		if report.Cancelled {
			o.sink.Notify(ctx, SeverityWarning, "Sync cancelled")
		}
		log.Info().
			Str("stage", report.Stage.String()).
			Dur("duration", report.Duration).
			Int("accepted", report.Totals().Accepted).
			Msg("Sync run finished")
		return report, err
	}

	if gate.Cancelled() {
		return finish(StageCancelled)
	}
	if err := o.advance(&sm, StageResolving); err != nil {
		report.Stage = sm.Current()
		return report, err
	}
	res, cancelled := o.resolve(gate, activity)
	if cancelled {
		return finish(StageCancelled)
	}

	pipeline := NewPipeline(o.catalog, o.resolver, o.sink)
	uploader := NewUploader(o.catalog, o.settings.BatchSize, o.settings.FailurePause, o.settings.RejectPause, o.sink)

	for _, is := range intentStages {
		if gate.Cancelled() {
			return finish(StageCancelled)
		}
		if err := o.advance(&sm, is.stage); err != nil {
			report.Stage = sm.Current()
			return report, err
		}
		if !o.intentEnabled(is.intent) {
			continue
		}
		parts := Partition(res.items[is.intent])
		for _, cat := range models.Categories {
			if !o.categoryEnabled(cat) {
				continue
			}
			if gate.Cancelled() {
				return finish(StageCancelled)
			}
			step, stopped := o.runStep(gate, is.stage, pipeline, uploader, is.intent, cat, parts[cat], res.unresolved[setKey{is.intent, cat}])
			report.Steps = append(report.Steps, step)
			if stopped {
				return finish(StageCancelled)
			}
		}
	}
	return finish(StageCompleted)
}

func (o *Orchestrator) advance(sm *StageMachine, next Stage) error {
	if err := sm.Advance(next); err != nil {
		return err
	}
	o.progress(Progress{Stage: next})
	return nil
}

// resolve derives identities for every record in an enabled intent and
// category. Episode lookups are shared across intents.
func (o *Orchestrator) resolve(gate *Gate, activity models.Activity) (resolution, bool) {
	res := resolution{
		items:      make(map[models.Intent][]models.SyncItem, len(models.Intents)),
		unresolved: make(map[setKey]int),
	}
	episodes := NewEpisodeResolver(o.lookup, o.sink)
	markRated := o.settings.MarkRatedAsWatched && o.intentEnabled(models.IntentWatched)

	for _, intent := range models.Intents {
		if !o.intentEnabled(intent) && !(intent == models.IntentRating && markRated) {
			continue
		}
		var (
			items   []models.SyncItem
			pending []models.LocalRecord
		)
		for _, rec := range activity.ForIntent(intent) {
			switch {
			case !o.categoryEnabled(rec.Category()):
			case rec.Category() == models.CategoryEpisode:
				pending = append(pending, rec)
			default:
				items = append(items, models.SyncItem{Record: rec, Identity: models.IdentityOf(rec)})
			}
		}
		if len(pending) > 0 {
			o.sink.Notify(gate.Context(), SeverityInfo, fmt.Sprintf("Looking up %d episodes for %s", len(pending), label(intent)))
		}
		resolved, unresolved, cancelled := episodes.ResolveAll(gate, pending)
		if cancelled {
			return res, true
		}
		res.items[intent] = append(items, resolved...)
		res.unresolved[setKey{intent, models.CategoryEpisode}] = unresolved
	}

	if markRated {
		res.items[models.IntentWatched] = o.mergeRated(res.items[models.IntentWatched], res.items[models.IntentRating])
	}
	return res, false
}

// mergeRated appends rated movies and episodes that are not already in
// watched.
func (o *Orchestrator) mergeRated(watched, rated []models.SyncItem) []models.SyncItem {
	out := slices.Clip(watched)
	for _, r := range rated {
		cat := r.Record.Category()
		if cat != models.CategoryMovie && cat != models.CategoryEpisode {
			continue
		}
		dup := slices.ContainsFunc(out, func(w models.SyncItem) bool {
			return w.Record.Category() == cat && o.resolver.Same(r.Identity, w.Identity)
		})
		if !dup {
			out = append(out, r)
		}
	}
	return out
}

// runStep filters and uploads one intent/category. stopped is true when the
// gate was cancelled during the step.
func (o *Orchestrator) runStep(gate *Gate, stage Stage, pipeline *Pipeline, uploader *Uploader,
	intent models.Intent, cat models.Category, items []models.SyncItem, unresolved int) (StepReport, bool) {
	ctx := gate.Context()
	step := StepReport{Intent: intent, Category: cat, Candidates: len(items), Unresolved: unresolved}
	if len(items) == 0 {
		return step, false
	}
	o.progress(Progress{Stage: stage, Intent: intent, Category: cat})

	filtered := pipeline.Filter(gate.CallContext(), intent, cat, items, o.settings.SuppressWatchlistIfWatched)
	step.AlreadyPresent = filtered.AlreadyPresent
	step.SuppressedWatched = filtered.SuppressedWatched
	step.DedupSkipped = filtered.DedupSkipped
	step.ToSync = len(filtered.Items)
	step.Pages = PageCount(step.ToSync, o.settings.BatchSize)

	if step.ToSync == 0 {
		o.sink.Notify(ctx, SeverityInfo, fmt.Sprintf("No new %s for %s", cat.Plural(), label(intent)))
		return step, gate.Cancelled()
	}
	if o.settings.DryRun {
		o.sink.Notify(ctx, SeverityInfo, fmt.Sprintf("Dry run: would send %d %s to %s in %d pages", step.ToSync, cat.Plural(), label(intent), step.Pages))
		return step, gate.Cancelled()
	}

	o.sink.Notify(ctx, SeverityInfo, fmt.Sprintf("Sending %d %s to %s", step.ToSync, cat.Plural(), label(intent)))
	for out := range uploader.Stream(gate, intent, cat, filtered.Items) {
		step.add(out)
		o.progress(Progress{Stage: stage, Intent: intent, Category: cat, Page: out.Page, Pages: out.Pages})
	}
	if intent == models.IntentWatched && step.Accepted > 0 {
		pipeline.Invalidate(models.IntentWatched, cat)
	}
	return step, gate.Cancelled()
}

func label(i models.Intent) string {
	switch i {
	case models.IntentRating:
		return "ratings"
	case models.IntentWatched:
		return "history"
	default:
		return string(i)
	}
}
