// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

// Package runner owns sync runs: at most one at a time, started from the CLI
// or the control API, cancellable, with status and persisted reports.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
	"github.com/tomtom215/reelsync/internal/models"
	"github.com/tomtom215/reelsync/internal/reconcile"
	"github.com/tomtom215/reelsync/internal/sources"
)

var (
	// ErrRunInProgress is returned when a run is started while another is active.
	ErrRunInProgress = errors.New("sync run already in progress")
	// ErrNoRun is returned by Cancel when nothing is running.
	ErrNoRun = errors.New("no sync run in progress")
)

// maxMessages bounds the status message ring.
const maxMessages = 50

// SourceFactory returns the source for a site.
type SourceFactory func(site string) (sources.Source, error)

// ReportStore persists finished run reports.
type ReportStore interface {
	Save(ctx context.Context, report *reconcile.Report) error
}

// Broadcaster pushes live run events to subscribers.
// Implemented by *websocket.Hub.
type Broadcaster interface {
	BroadcastJSON(messageType string, data any)
}

// Live event types.
const (
	EventMessage  = "sync_message"
	EventProgress = "sync_progress"
	EventFinished = "sync_finished"
)

// Event is the payload of every live event. Exactly one of Message, Progress
// or Report is set, matching the event type; Error is set on a failed run.
type Event struct {
	RunID    string              `json:"run_id"`
	Site     string              `json:"site"`
	Message  *Message            `json:"message,omitempty"`
	Progress *reconcile.Progress `json:"progress,omitempty"`
	Report   *reconcile.Report   `json:"report,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// Options are the collaborators of a Runner.
type Options struct {
	Config  *config.Config
	Catalog reconcile.Catalog
	Lookup  reconcile.EpisodeLookup
	// Sources defaults to sources.New with Config.
	Sources SourceFactory
	// History is optional.
	History ReportStore
	// Events is optional.
	Events Broadcaster
}

// Message is one status line of the current or last run.
type Message struct {
	Time     time.Time          `json:"time"`
	Severity reconcile.Severity `json:"severity"`
	Text     string             `json:"text"`
}

// Status is a snapshot of the runner.
type Status struct {
	Running   bool               `json:"running"`
	RunID     string             `json:"run_id,omitempty"`
	Site      string             `json:"site,omitempty"`
	StartedAt time.Time          `json:"started_at,omitempty"`
	Progress  reconcile.Progress `json:"progress"`
	Messages  []Message          `json:"messages"`
	Last      *reconcile.Report  `json:"last,omitempty"`
}

// Runner executes sync runs one at a time.
type Runner struct {
	cfg     *config.Config
	catalog reconcile.Catalog
	lookup  reconcile.EpisodeLookup
	sources SourceFactory
	history ReportStore
	events  Broadcaster

	mu       sync.RWMutex
	running  bool
	gate     *reconcile.Gate
	runID    string
	site     string
	started  time.Time
	progress reconcile.Progress
	messages []Message
	last     *reconcile.Report

	wg sync.WaitGroup
}

// New creates a runner.
func New(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if opts.Sources == nil {
		cfg := opts.Config
		opts.Sources = func(site string) (sources.Source, error) { return sources.New(site, cfg) }
	}
	return &Runner{
		cfg:     opts.Config,
		catalog: opts.Catalog,
		lookup:  opts.Lookup,
		sources: opts.Sources,
		history: opts.History,
		events:  opts.Events,
	}, nil
}

// run is one claimed run slot.
type run struct {
	id    string
	site  string
	src   sources.Source
	scope config.Scope
	gate  *reconcile.Gate
}

// claim validates site and takes the run slot.
func (r *Runner) claim(ctx context.Context, site string) (*run, error) {
	src, err := r.sources(site)
	if err != nil {
		return nil, err
	}
	scope, err := r.cfg.SiteScope(site)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil, ErrRunInProgress
	}

	id := logging.GenerateRunID()
	ctx = logging.ContextWithSite(logging.ContextWithRunID(ctx, id), src.Site())
	gate := reconcile.NewGate(ctx)

	r.running = true
	r.gate = gate
	r.runID = id
	r.site = src.Site()
	r.started = time.Now()
	r.progress = reconcile.Progress{Stage: reconcile.StageIdle}
	r.messages = nil
	return &run{id: id, site: src.Site(), src: src, scope: scope, gate: gate}, nil
}

// Run executes a sync for site and blocks until it ends. Cancelling ctx or
// calling Cancel stops it at the next safe point.
func (r *Runner) Run(ctx context.Context, site string) (*reconcile.Report, error) {
	rn, err := r.claim(ctx, site)
	if err != nil {
		return nil, err
	}
	return r.execute(rn)
}

// Start begins a sync for site in the background and returns its run id. The
// run is detached from ctx; stop it with Cancel.
func (r *Runner) Start(ctx context.Context, site string) (string, error) {
	rn, err := r.claim(context.WithoutCancel(ctx), site)
	if err != nil {
		return "", err
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if _, err := r.execute(rn); err != nil {
			logging.Ctx(rn.gate.Context()).Error().Err(err).Msg("Sync run failed")
		}
	}()
	return rn.id, nil
}

// Wait blocks until background runs have finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Cancel asks the current run to stop.
func (r *Runner) Cancel() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.running {
		return ErrNoRun
	}
	r.gate.Cancel()
	logging.Ctx(r.gate.Context()).Info().Msg("Sync cancellation requested")
	return nil
}

// Status returns a snapshot of the runner.
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Status{
		Running:   r.running,
		RunID:     r.runID,
		Site:      r.site,
		StartedAt: r.started,
		Progress:  r.progress,
		Messages:  append([]Message(nil), r.messages...),
		Last:      r.last,
	}
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	return s
}

// Notify records a status message, logs it and publishes it live.
func (r *Runner) Notify(ctx context.Context, sev reconcile.Severity, msg string) {
	reconcile.LogSink{}.Notify(ctx, sev, msg)
	m := Message{Time: time.Now(), Severity: sev, Text: msg}

	r.mu.Lock()
	r.messages = append(r.messages, m)
	if n := len(r.messages); n > maxMessages {
		r.messages = append(r.messages[:0:0], r.messages[n-maxMessages:]...)
	}
	ev := Event{RunID: r.runID, Site: r.site, Message: &m}
	r.mu.Unlock()

	r.publish(EventMessage, ev)
}

func (r *Runner) setProgress(p reconcile.Progress) {
	r.mu.Lock()
	r.progress = p
	ev := Event{RunID: r.runID, Site: r.site, Progress: &p}
	r.mu.Unlock()

	r.publish(EventProgress, ev)
}

func (r *Runner) publish(eventType string, ev Event) {
	if r.events != nil {
		r.events.BroadcastJSON(eventType, ev)
	}
}

func (r *Runner) execute(rn *run) (report *reconcile.Report, err error) {
	ctx := rn.gate.Context()
	log := logging.Ctx(ctx)
	start := time.Now()

	metrics.SyncRunActive.Inc()
	defer func() {
		metrics.SyncRunActive.Dec()
		state := "failed"
		if err == nil && report != nil {
			state = report.Stage.String()
		}
		metrics.RecordRun(rn.site, state, time.Since(start))
		r.finish(rn, report, err)
	}()

	log.Info().Strs("intents", intentNames(rn.scope.Intents)).Bool("dry_run", r.cfg.Sync.DryRun).Msg("Sync run started")
	r.Notify(ctx, reconcile.SeverityInfo, fmt.Sprintf("Reading %s export", rn.site))

	activity, err := rn.src.Load(ctx)
	if err != nil {
		if rn.gate.Cancelled() {
			report = cancelledReport(rn, start)
			r.save(ctx, report)
			return report, nil
		}
		r.Notify(ctx, reconcile.SeverityError, fmt.Sprintf("Failed to read %s export: %v", rn.site, err))
		return nil, fmt.Errorf("load %s activity: %w", rn.site, err)
	}
	r.Notify(ctx, reconcile.SeverityInfo, fmt.Sprintf("Found %d ratings, %d watched and %d watchlist records",
		len(activity.Ratings), len(activity.Watched), len(activity.Watchlist)))

	orch, err := reconcile.New(r.settings(rn.scope), reconcile.Options{
		Catalog:  r.catalog,
		Lookup:   r.lookup,
		Sink:     r,
		Progress: r.setProgress,
	})
	if err != nil {
		return nil, err
	}

	report, err = orch.Run(rn.gate, activity)
	report.RunID = rn.id
	report.Site = rn.site
	r.save(ctx, report)
	return report, err
}

func (r *Runner) save(ctx context.Context, report *reconcile.Report) {
	if r.history == nil {
		return
	}
	if err := r.history.Save(context.WithoutCancel(ctx), report); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to save run report")
	}
}

func (r *Runner) finish(rn *run, report *reconcile.Report, err error) {
	r.mu.Lock()
	r.running = false
	if report != nil {
		r.last = report
	}
	rn.gate.Cancel()
	r.mu.Unlock()

	ev := Event{RunID: rn.id, Site: rn.site, Report: report}
	if err != nil {
		ev.Error = err.Error()
	}
	r.publish(EventFinished, ev)
}

// settings maps config onto the engine settings for one site scope.
func (r *Runner) settings(scope config.Scope) reconcile.Settings {
	sc := r.cfg.Sync
	s := reconcile.DefaultSettings()
	if sc.BatchSize > 0 {
		s.BatchSize = sc.BatchSize
	}
	s.SuppressWatchlistIfWatched = sc.SuppressWatchlistIfWatched
	s.MarkRatedAsWatched = sc.MarkRatedAsWatched
	s.FailurePause = sc.FailurePause
	s.RejectPause = sc.RejectPause
	s.Ambiguity = reconcile.AmbiguityPolicy(sc.AmbiguityPolicy)
	if s.Ambiguity == "" {
		s.Ambiguity = reconcile.AmbiguityFirst
	}
	s.Intents = scope.Intents
	s.Categories = scope.Categories
	s.DryRun = sc.DryRun
	return s
}

func cancelledReport(rn *run, start time.Time) *reconcile.Report {
	now := time.Now()
	return &reconcile.Report{
		RunID:      rn.id,
		Site:       rn.site,
		StartedAt:  start,
		FinishedAt: now,
		Duration:   now.Sub(start),
		Stage:      reconcile.StageCancelled,
		Cancelled:  true,
		Steps:      []reconcile.StepReport{},
	}
}

func intentNames(intents []models.Intent) []string {
	if len(intents) == 0 {
		intents = models.Intents
	}
	names := make([]string, len(intents))
	for i, in := range intents {
		names[i] = string(in)
	}
	return names
}
