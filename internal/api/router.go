// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the control API routes.
//
//	GET  /api/v1/health
//	POST /api/v1/sync/{site}
//	POST /api/v1/sync/cancel
//	GET  /api/v1/sync/status
//	GET  /api/v1/sync/history
//	GET  /api/v1/sync/history/{runID}
//	GET  /api/v1/sync/events (websocket)
//	GET  /metrics
func NewRouter(h *Handler, mwCfg *MiddlewareConfig) http.Handler {
	mw := NewMiddleware(mwCfg)
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Metrics())
		r.Use(SecurityHeaders())

		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())

			r.Route("/sync", func(r chi.Router) {
				r.Get("/status", h.SyncStatus)
				r.Post("/cancel", h.CancelSync)
				r.Get("/history", h.ListHistory)
				r.Get("/history/{runID}", h.GetHistory)
				r.Get("/events", h.SyncEvents)
				r.Post("/{site}", h.StartSync)
			})
		})
	})

	return r
}
