// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package api is the HTTP control surface of the serve mode.

It starts and cancels sync runs, reports live status and progress, and
exposes stored run reports and Prometheus metrics. Every JSON response
uses the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "CONFLICT", "message": "..."}, "meta": {...}}

Only one run executes at a time; a second start returns 409. Starting a run
returns 202 immediately and the run continues in the background until it
finishes or is cancelled through POST /api/v1/sync/cancel.

GET /api/v1/sync/events upgrades to a websocket carrying the live status
messages, progress and final report of every run (see package websocket).

Middleware: chi RequestID (copied into the logging context), RealIP,
Recoverer, go-chi/cors, httprate per-IP limits on /sync, and a Prometheus
middleware labelled by route pattern.
*/
package api
