// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

// Package services adapts the serve-mode components to suture.Service.
//
// Each Serve blocks until its context is cancelled and then stops the wrapped
// component within a bounded timeout. String names the service in supervisor
// log events.
package services
