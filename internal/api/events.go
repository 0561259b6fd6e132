// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/reelsync/internal/logging"
	ws "github.com/tomtom215/reelsync/internal/websocket"
)

// attachTimeout bounds the wait for the hub to accept a new client.
const attachTimeout = 5 * time.Second

// SetEventHub enables GET /api/v1/sync/events. Browser origins must be in
// allowedOrigins or match the request host.
func (h *Handler) SetEventHub(hub *ws.Hub, allowedOrigins []string) {
	h.events = hub
	h.eventOrigins = allowedOrigins
}

// SyncEvents handles GET /api/v1/sync/events
//
// It upgrades to a websocket that streams sync_message, sync_progress and
// sync_finished events of every run.
func (h *Handler) SyncEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		NewResponseWriter(w, r).ServiceUnavailable("live events are not enabled")
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Event stream upgrade failed")
		return
	}

	// The hijacked connection outlives the request context.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), attachTimeout)
	defer cancel()
	if err := h.events.Attach(ctx, conn); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Event hub did not accept client")
	}
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkEventOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkEventOrigin admits clients without an Origin header (CLI tools),
// same-host pages and configured origins.
func (h *Handler) checkEventOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.eventOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}

	logging.Ctx(r.Context()).Warn().Str("origin", origin).Msg("Event stream rejected from unauthorized origin")
	return false
}
