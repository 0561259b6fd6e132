// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package services

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/runner"
)

// RunController is the part of *runner.Runner the service needs.
type RunController interface {
	Cancel() error
	Wait()
}

// RunnerService ties background sync runs to the supervisor lifecycle. While
// the tree is up it idles; on shutdown it cancels the active run and waits up
// to drainTimeout for the cancelled report to be written.
type RunnerService struct {
	runner       RunController
	drainTimeout time.Duration
}

// NewRunnerService wraps r. A non-positive drainTimeout means 10s.
func NewRunnerService(r RunController, drainTimeout time.Duration) *RunnerService {
	if drainTimeout <= 0 {
		drainTimeout = 10 * time.Second
	}
	return &RunnerService{runner: r, drainTimeout: drainTimeout}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	<-ctx.Done()

	switch err := s.runner.Cancel(); {
	case err == nil:
		logging.Info().Msg("Cancelling active sync run for shutdown")
	case errors.Is(err, runner.ErrNoRun):
		return ctx.Err()
	default:
		logging.Warn().Err(err).Msg("Failed to cancel sync run")
	}

	done := make(chan struct{})
	go func() {
		s.runner.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.drainTimeout):
		logging.Warn().Dur("timeout", s.drainTimeout).Msg("Sync run did not stop before shutdown timeout")
	}
	return ctx.Err()
}

// String names the service in supervisor events.
func (s *RunnerService) String() string {
	return "sync-runner"
}
