// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package reconcile

import (
	"errors"
	"testing"
)

func TestStageMachine(t *testing.T) {
	t.Parallel()

	t.Run("full sequence", func(t *testing.T) {
		t.Parallel()
		var m StageMachine
		for _, next := range []Stage{StageResolving, StageRatings, StageWatched, StageWatchlist, StageCompleted} {
			if err := m.Advance(next); err != nil {
				t.Fatalf("Advance(%s): %v", next, err)
			}
		}
		if !m.Current().Terminal() {
			t.Error("completed should be terminal")
		}
	})

	t.Run("illegal transitions", func(t *testing.T) {
		t.Parallel()
		tests := []struct{ from, to Stage }{
			{StageIdle, StageRatings},
			{StageRatings, StageResolving},
			{StageWatched, StageRatings},
			{StageCompleted, StageCancelled},
			{StageCancelled, StageResolving},
		}
		for _, tt := range tests {
			m := StageMachine{current: tt.from}
			err := m.Advance(tt.to)
			if !errors.Is(err, ErrIllegalTransition) {
				t.Errorf("%s -> %s: err = %v, want ErrIllegalTransition", tt.from, tt.to, err)
			}
			if m.Current() != tt.from {
				t.Errorf("%s -> %s: stage changed to %s", tt.from, tt.to, m.Current())
			}
		}
	})

	t.Run("cancel from every active stage", func(t *testing.T) {
		t.Parallel()
		for _, s := range []Stage{StageIdle, StageResolving, StageRatings, StageWatched, StageWatchlist} {
			if !CanTransition(s, StageCancelled) {
				t.Errorf("%s should allow cancellation", s)
			}
		}
	})
}

func TestStage_Text(t *testing.T) {
	t.Parallel()

	for s := StageIdle; s <= StageCancelled; s++ {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Stage
		if err := back.UnmarshalText(text); err != nil || back != s {
			t.Errorf("round trip of %s gave %s, %v", s, back, err)
		}
	}
	var s Stage
	if err := s.UnmarshalText([]byte("paused")); err == nil {
		t.Error("expected error for unknown stage")
	}
}
