// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package reconcile

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tomtom215/reelsync/internal/models"
)

// Stage is a step of the orchestrator state machine.
type Stage int

const (
	StageIdle Stage = iota
	StageResolving
	StageRatings
	StageWatched
	StageWatchlist
	StageCompleted
	StageCancelled
)

var stageNames = map[Stage]string{
	StageIdle:      "idle",
	StageResolving: "resolving",
	StageRatings:   "ratings",
	StageWatched:   "watched",
	StageWatchlist: "watchlist",
	StageCompleted: "completed",
	StageCancelled: "cancelled",
}

// transitions lists the legal next stages of every stage.
var transitions = map[Stage][]Stage{
	StageIdle:      {StageResolving, StageCancelled},
	StageResolving: {StageRatings, StageCancelled},
	StageRatings:   {StageWatched, StageCancelled},
	StageWatched:   {StageWatchlist, StageCancelled},
	StageWatchlist: {StageCompleted, StageCancelled},
	StageCompleted: nil,
	StageCancelled: nil,
}

// intentStages maps the intent stages in run order.
var intentStages = []struct {
	stage  Stage
	intent models.Intent
}{
	{StageRatings, models.IntentRating},
	{StageWatched, models.IntentWatched},
	{StageWatchlist, models.IntentWatchlist},
}

// ErrIllegalTransition is returned when a stage change is not in the table.
var ErrIllegalTransition = errors.New("illegal stage transition")

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Terminal reports whether no transition leaves s.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageCancelled
}

// CanTransition reports whether from -> to is legal.
func CanTransition(from, to Stage) bool {
	return slices.Contains(transitions[from], to)
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage name.
func (s *Stage) UnmarshalText(text []byte) error {
	for st, name := range stageNames {
		if name == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", text)
}

// StageMachine tracks the current stage of one run. It is not safe for
// concurrent use.
type StageMachine struct {
	current Stage
}

// Current returns the current stage.
func (m *StageMachine) Current() Stage { return m.current }

// Advance moves to next if the transition table allows it.
func (m *StageMachine) Advance(next Stage) error {
	if !CanTransition(m.current, next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.current, next)
	}
	m.current = next
	return nil
}
