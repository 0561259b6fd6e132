// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package supervisor runs the long-lived parts of the serve mode under a
suture tree.

	reelsync (root)
	├── run-layer
	│   └── sync-runner   (services.RunnerService)
	└── api-layer
	    └── http-server   (services.HTTPServerService)

Suture restarts a failed service after a backoff once it exceeds the
failure threshold. Supervisor events are logged through
sutureslog with the zerolog-backed slog handler from the logging package:

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddRunService(services.NewRunnerService(r, cfg.Server.ShutdownTimeout))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	err := tree.Serve(ctx)
*/
package supervisor
