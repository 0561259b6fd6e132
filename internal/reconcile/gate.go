// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package reconcile

import (
	"context"
	"time"
)

// Gate is the cooperative cancellation token of a run.
//
// Cancellation is advisory: the engine polls Cancelled at stage, category,
// lookup and page boundaries. Remote calls use CallContext, which carries the
// run's values but not its cancellation, so a call that already started
// always completes.
type Gate struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewGate derives a gate from parent. Cancelling parent cancels the gate.
// Callers should Cancel the gate once the run has ended.
func NewGate(parent context.Context) *Gate {
	ctx, cancel := context.WithCancel(parent)
	return &Gate{ctx: ctx, cancel: cancel}
}

// Cancel requests an orderly stop. Safe to call more than once and from any
// goroutine.
func (g *Gate) Cancel() { g.cancel() }

// Cancelled reports whether a stop was requested.
func (g *Gate) Cancelled() bool { return g.ctx.Err() != nil }

// Done is closed once a stop is requested.
func (g *Gate) Done() <-chan struct{} { return g.ctx.Done() }

// Context is the cancellable run context, for logging and waiting.
func (g *Gate) Context() context.Context { return g.ctx }

// CallContext is the context handed to remote calls.
func (g *Gate) CallContext() context.Context { return context.WithoutCancel(g.ctx) }

// Pause sleeps for d. It returns false early if the gate is cancelled.
func (g *Gate) Pause(d time.Duration) bool {
	if d <= 0 {
		return !g.Cancelled()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-g.ctx.Done():
		return false
	}
}
