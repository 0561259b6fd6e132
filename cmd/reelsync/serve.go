// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/reelsync/internal/api"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/supervisor"
	"github.com/tomtom215/reelsync/internal/supervisor/services"
	ws "github.com/tomtom215/reelsync/internal/websocket"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the control API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hub := ws.NewHub()
			st, err := a.newStack(hub)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, st, hub)
		},
	}
}

func (a *app) serve(ctx context.Context, st *stack, hub *ws.Hub) error {
	cfg := a.cfg.Server

	handler := api.NewHandler(st.runner, st.historyReader(), version)
	handler.SetEventHub(hub, cfg.CORSOrigins)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(handler, api.MiddlewareConfigFrom(cfg)),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.ShutdownTimeout,
	})
	tree.AddRunService(services.NewRunnerService(st.runner, cfg.ShutdownTimeout))
	tree.AddAPIService(services.NewEventHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.ShutdownTimeout))

	logging.Info().Str("version", version).Str("addr", cfg.Addr()).Msg("Starting reelsync control API")

	err := tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("Shutdown complete")
	return nil
}
