// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

/*
Package websocket pushes live sync events to subscribers of the control API.

The Hub keeps the connected clients and fans messages out to them in
connection order. Each Client runs a read pump, which answers pings and
notices disconnects, and a write pump, which writes queued messages and
keepalive pings. A client that falls behind by more than its buffer is
disconnected.

The runner publishes through Hub.BroadcastJSON:

	{"type": "sync_message",  "data": {"run_id": "...", "site": "imdb", "message": {"severity": "info", "text": "Sent movies page 1/3 to ratings (250 items)"}}}
	{"type": "sync_progress", "data": {"run_id": "...", "site": "imdb", "progress": {"stage": "ratings", "intent": "rating", "category": "movie", "page": 1, "pages": 3}}}
	{"type": "sync_finished", "data": {"run_id": "...", "site": "imdb", "report": {...}}}

Clients may send {"type": "ping"} and receive {"type": "pong"}.

The hub runs as a supervised service (RunWithContext); cancelling its
context closes every client with a going-away close frame.
*/
package websocket
