// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package reconcile

import (
	"context"
	"fmt"

	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/models"
)

// RemoteReader reads the comparison sets from the remote catalog.
// Watched for CategoryShow must carry the per-season breakdown.
type RemoteReader interface {
	Rated(ctx context.Context, cat models.Category) ([]models.RemoteEntry, error)
	Watched(ctx context.Context, cat models.Category) ([]models.RemoteEntry, error)
	Watchlist(ctx context.Context, cat models.Category) ([]models.RemoteEntry, error)
}

// RemoteWriter submits one batch per call.
type RemoteWriter interface {
	AddRatings(ctx context.Context, cat models.Category, items []models.SyncItem) (*models.SyncResponse, error)
	AddToWatched(ctx context.Context, cat models.Category, items []models.SyncItem) (*models.SyncResponse, error)
	AddToWatchlist(ctx context.Context, cat models.Category, items []models.SyncItem) (*models.SyncResponse, error)
}

// Catalog is the full remote collaborator.
type Catalog interface {
	RemoteReader
	RemoteWriter
}

// EpisodeLookup resolves an episode into its canonical identity.
// ok is false when the catalog has no such episode.
type EpisodeLookup interface {
	ResolveEpisode(ctx context.Context, q models.EpisodeQuery) (id models.ResolvedIdentity, ok bool, err error)
}

func fetchRemote(ctx context.Context, r RemoteReader, intent models.Intent, cat models.Category) ([]models.RemoteEntry, error) {
	switch intent {
	case models.IntentRating:
		return r.Rated(ctx, cat)
	case models.IntentWatched:
		return r.Watched(ctx, cat)
	case models.IntentWatchlist:
		return r.Watchlist(ctx, cat)
	default:
		return nil, fmt.Errorf("unknown intent %q", intent)
	}
}

func submit(ctx context.Context, w RemoteWriter, intent models.Intent, cat models.Category, items []models.SyncItem) (*models.SyncResponse, error) {
	switch intent {
	case models.IntentRating:
		return w.AddRatings(ctx, cat, items)
	case models.IntentWatched:
		return w.AddToWatched(ctx, cat, items)
	case models.IntentWatchlist:
		return w.AddToWatchlist(ctx, cat, items)
	default:
		return nil, fmt.Errorf("unknown intent %q", intent)
	}
}

// Severity of a status message.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StatusSink receives human-readable progress. It must not block.
type StatusSink interface {
	Notify(ctx context.Context, sev Severity, msg string)
}

// StatusFunc adapts a function to StatusSink.
type StatusFunc func(ctx context.Context, sev Severity, msg string)

// Notify calls f.
func (f StatusFunc) Notify(ctx context.Context, sev Severity, msg string) { f(ctx, sev, msg) }

// LogSink writes status messages to the context logger.
type LogSink struct{}

// Notify logs msg at the level matching sev.
func (LogSink) Notify(ctx context.Context, sev Severity, msg string) {
	l := logging.Ctx(ctx)
	switch sev {
	case SeverityError:
		l.Error().Msg(msg)
	case SeverityWarning:
		l.Warn().Msg(msg)
	default:
		l.Info().Msg(msg)
	}
}
