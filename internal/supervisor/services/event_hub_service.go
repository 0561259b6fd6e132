// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package services

import (
	"context"
)

// EventHub matches *websocket.Hub's RunWithContext method.
type EventHub interface {
	RunWithContext(ctx context.Context) error
}

// EventHubService runs the live event hub under the supervisor. The hub
// closes its clients when ctx is cancelled.
type EventHubService struct {
	hub EventHub
}

// NewEventHubService wraps hub.
func NewEventHubService(hub EventHub) *EventHubService {
	return &EventHubService{hub: hub}
}

// Serve implements suture.Service.
func (s *EventHubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String names the service in supervisor events.
func (s *EventHubService) String() string {
	return "event-hub"
}
