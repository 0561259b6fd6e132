// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package reconcile

import (
	"time"

	"github.com/tomtom215/reelsync/internal/models"
)

// StepReport summarizes one intent/category step.
type StepReport struct {
	Intent   models.Intent   `json:"intent"`
	Category models.Category `json:"category"`

	Candidates        int  `json:"candidates"`
	Unresolved        int  `json:"unresolved"`
	AlreadyPresent    int  `json:"already_present"`
	SuppressedWatched int  `json:"suppressed_watched"`
	DedupSkipped      bool `json:"dedup_skipped,omitempty"`
	ToSync            int  `json:"to_sync"`

	Pages             int `json:"pages"`
	Transmitted       int `json:"transmitted"`
	PartiallyRejected int `json:"partially_rejected"`
	Failed            int `json:"failed"`
	Accepted          int `json:"accepted"`
	NotFound          int `json:"not_found"`
}

func (s *StepReport) add(o models.SyncOutcome) {
	switch o.Kind {
	case models.OutcomeTransmitted:
		s.Transmitted++
	case models.OutcomePartiallyRejected:
		s.PartiallyRejected++
	case models.OutcomeFailed:
		s.Failed++
	}
	s.Accepted += o.Accepted()
	s.NotFound += o.NotFound
}

// Report is the result of one run.
type Report struct {
	RunID      string        `json:"run_id"`
	Site       string        `json:"site"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`
	Stage      Stage         `json:"stage"`
	Cancelled  bool          `json:"cancelled"`
	DryRun     bool          `json:"dry_run,omitempty"`
	Steps      []StepReport  `json:"steps"`
}

// Step returns the report for intent/category, if that step ran.
func (r *Report) Step(intent models.Intent, cat models.Category) (StepReport, bool) {
	for _, s := range r.Steps {
		if s.Intent == intent && s.Category == cat {
			return s, true
		}
	}
	return StepReport{}, false
}

// Totals sums all steps. Intent and Category are left empty.
func (r *Report) Totals() StepReport {
	var t StepReport
	for _, s := range r.Steps {
		t.Candidates += s.Candidates
		t.Unresolved += s.Unresolved
		t.AlreadyPresent += s.AlreadyPresent
		t.SuppressedWatched += s.SuppressedWatched
		t.DedupSkipped = t.DedupSkipped || s.DedupSkipped
		t.ToSync += s.ToSync
		t.Pages += s.Pages
		t.Transmitted += s.Transmitted
		t.PartiallyRejected += s.PartiallyRejected
		t.Failed += s.Failed
		t.Accepted += s.Accepted
		t.NotFound += s.NotFound
	}
	return t
}
