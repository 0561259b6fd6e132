// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package reconcile

import (
	"context"
	"testing"
	"time"
)

func TestGate(t *testing.T) {
	t.Parallel()

	t.Run("cancel", func(t *testing.T) {
		t.Parallel()
		g := NewGate(context.Background())
		if g.Cancelled() {
			t.Fatal("new gate should not be cancelled")
		}
		g.Cancel()
		g.Cancel()
		if !g.Cancelled() {
			t.Error("gate should be cancelled")
		}
		select {
		case <-g.Done():
		default:
			t.Error("Done should be closed")
		}
		if g.CallContext().Err() != nil {
			t.Error("call context must not carry cancellation")
		}
	})

	t.Run("parent cancellation", func(t *testing.T) {
		t.Parallel()
		parent, cancel := context.WithCancel(context.Background())
		g := NewGate(parent)
		cancel()
		if !g.Cancelled() {
			t.Error("gate should follow its parent")
		}
	})

	t.Run("pause", func(t *testing.T) {
		t.Parallel()
		g := NewGate(context.Background())
		defer g.Cancel()
		if !g.Pause(time.Millisecond) {
			t.Error("uncancelled pause should complete")
		}
		if !g.Pause(0) {
			t.Error("zero pause should report not cancelled")
		}
	})

	t.Run("pause interrupted", func(t *testing.T) {
		t.Parallel()
		g := NewGate(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			g.Cancel()
		}()
		start := time.Now()
		if g.Pause(time.Hour) {
			t.Error("pause should report cancellation")
		}
		if time.Since(start) > 5*time.Second {
			t.Error("pause was not interrupted")
		}
	})
}
