// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/reelsync/internal/history"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/reconcile"
	"github.com/tomtom215/reelsync/internal/runner"
	"github.com/tomtom215/reelsync/internal/sources"
	"github.com/tomtom215/reelsync/internal/validation"
	ws "github.com/tomtom215/reelsync/internal/websocket"
)

// SyncController starts, stops and reports on sync runs.
// Implemented by *runner.Runner.
type SyncController interface {
	Start(ctx context.Context, site string) (string, error)
	Cancel() error
	Status() runner.Status
}

// HistoryReader reads stored run reports.
// Implemented by *history.Store.
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]reconcile.Report, error)
	Get(ctx context.Context, runID string) (*reconcile.Report, error)
}

// Handler holds the control API handlers.
type Handler struct {
	sync      SyncController
	history   HistoryReader
	version   string
	startTime time.Time

	events       *ws.Hub
	eventOrigins []string
}

// NewHandler creates the handlers. history may be nil when run history is disabled.
func NewHandler(sync SyncController, history HistoryReader, version string) *Handler {
	return &Handler{
		sync:      sync,
		history:   history,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	SyncRunning   bool   `json:"sync_running"`
	History       bool   `json:"history_enabled"`
}

// StartedRun is the body of a 202 from POST /api/v1/sync/{site}.
type StartedRun struct {
	RunID string `json:"run_id"`
	Site  string `json:"site"`
}

// historyQuery holds the query parameters of the history list.
type historyQuery struct {
	Limit int `validate:"min=1,max=100"`
}

const defaultHistoryLimit = 20

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(HealthStatus{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		SyncRunning:   h.sync.Status().Running,
		History:       h.history != nil,
	})
}

// StartSync handles POST /api/v1/sync/{site}
//
// The run continues after the request returns; poll /api/v1/sync/status.
func (h *Handler) StartSync(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	site := chi.URLParam(r, "site")

	runID, err := h.sync.Start(r.Context(), site)
	switch {
	case err == nil:
	case errors.Is(err, runner.ErrRunInProgress):
		rw.Conflict(err.Error())
		return
	case errors.Is(err, sources.ErrUnknownSite):
		rw.NotFound(err.Error())
		return
	case errors.Is(err, sources.ErrSiteDisabled):
		rw.Error(http.StatusBadRequest, ErrCodeSiteDisabled, err.Error())
		return
	default:
		rw.InternalError("failed to start sync", err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("site", site).Str("run_id", runID).Msg("Sync started via API")
	rw.Accepted(StartedRun{RunID: runID, Site: site})
}

// CancelSync handles POST /api/v1/sync/cancel
func (h *Handler) CancelSync(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.sync.Cancel(); err != nil {
		if errors.Is(err, runner.ErrNoRun) {
			rw.Conflict(err.Error())
			return
		}
		rw.InternalError("failed to cancel sync", err)
		return
	}
	rw.Success(map[string]bool{"cancel_requested": true})
}

// SyncStatus handles GET /api/v1/sync/status
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.sync.Status())
}

// ListHistory handles GET /api/v1/sync/history?limit=N
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.history == nil {
		rw.ServiceUnavailable("run history is disabled")
		return
	}

	q := historyQuery{Limit: defaultHistoryLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			rw.BadRequest("limit must be an integer")
			return
		}
		q.Limit = n
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	reports, err := h.history.List(r.Context(), q.Limit)
	if err != nil {
		rw.InternalError("failed to read run history", err)
		return
	}
	rw.List(reports, len(reports))
}

// GetHistory handles GET /api/v1/sync/history/{runID}
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.history == nil {
		rw.ServiceUnavailable("run history is disabled")
		return
	}

	report, err := h.history.Get(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			rw.NotFound(err.Error())
			return
		}
		rw.InternalError("failed to read run report", err)
		return
	}
	rw.Success(report)
}
