// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package models

import (
	"fmt"
	"strings"
	"time"
)

// WatchedSeason lists the episode numbers of one season that Trakt has as watched.
type WatchedSeason struct {
	Number   int   `json:"number"`
	Episodes []int `json:"episodes"`
}

// ShowRef identifies the series an episode entry belongs to.
type ShowRef struct {
	CanonicalID string `json:"canonical_id,omitempty"`
	NativeID    string `json:"native_id,omitempty"`
	Title       string `json:"title"`
	Year        *int   `json:"year,omitempty"`
}

// RemoteEntry is an item already present on Trakt for one intent.
//
// Movies and shows fill the identity fields. Episode entries additionally set
// Show, Season and Number. Watched shows carry Seasons, the per-season
// breakdown used for episode-level suppression.
type RemoteEntry struct {
	CanonicalID string          `json:"canonical_id,omitempty"`
	NativeID    string          `json:"native_id,omitempty"`
	Title       string          `json:"title"`
	Year        *int            `json:"year,omitempty"`
	Show        *ShowRef        `json:"show,omitempty"`
	Season      int             `json:"season,omitempty"`
	Number      int             `json:"number,omitempty"`
	Seasons     []WatchedSeason `json:"seasons,omitempty"`
}

// HasBreakdown reports whether the entry is a show with a watched breakdown.
func (e RemoteEntry) HasBreakdown() bool {
	return len(e.Seasons) > 0
}

// HasEpisode reports whether season/number appears in the watched breakdown.
func (e RemoteEntry) HasEpisode(season, number int) bool {
	for _, s := range e.Seasons {
		if s.Number != season {
			continue
		}
		for _, n := range s.Episodes {
			if n == number {
				return true
			}
		}
	}
	return false
}

// EpisodeCount returns the number of watched episodes in the breakdown.
func (e RemoteEntry) EpisodeCount() int {
	n := 0
	for _, s := range e.Seasons {
		n += len(s.Episodes)
	}
	return n
}

// EpisodeCoordinates places a resolved episode inside its series.
type EpisodeCoordinates struct {
	Series ShowRef
	Season int
	Number int
}

// ResolvedIdentity is the matching key for one record within a run.
// CanonicalEpisodeID and Episode are only set for resolved episodes.
type ResolvedIdentity struct {
	NativeID           string
	Title              string
	Year               *int
	CanonicalEpisodeID string
	Episode            *EpisodeCoordinates
}

// IdentityOf derives the identity of a movie or show record from its own fields.
// Episode records need the episode lookup instead.
func IdentityOf(r LocalRecord) ResolvedIdentity {
	return ResolvedIdentity{
		NativeID: r.NativeID(),
		Title:    r.Title(),
		Year:     r.YearPtr(),
	}
}

// SyncItem pairs a record with the identity it is matched and uploaded by.
type SyncItem struct {
	Record   LocalRecord
	Identity ResolvedIdentity
}

// SyncBatch is one page of an upload.
type SyncBatch struct {
	Intent   Intent
	Category Category
	// Index is 1-based.
	Index int
	Total int
	Items []SyncItem
}

// CategoryCounts holds one count per category.
type CategoryCounts struct {
	Movies   int `json:"movies"`
	Shows    int `json:"shows"`
	Episodes int `json:"episodes"`
}

// For returns the count for c.
func (c CategoryCounts) For(cat Category) int {
	switch cat {
	case CategoryMovie:
		return c.Movies
	case CategoryShow:
		return c.Shows
	case CategoryEpisode:
		return c.Episodes
	default:
		return 0
	}
}

// SyncResponse is the remote reply to one batch write.
type SyncResponse struct {
	Added    CategoryCounts `json:"added"`
	Existing CategoryCounts `json:"existing"`
	NotFound CategoryCounts `json:"not_found"`
}

// OutcomeKind classifies a batch result.
type OutcomeKind int

const (
	// OutcomeTransmitted means the remote accepted the whole batch.
	OutcomeTransmitted OutcomeKind = iota
	// OutcomePartiallyRejected means some items had no catalog match.
	OutcomePartiallyRejected
	// OutcomeFailed means there was no usable response.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeTransmitted:
		return "transmitted"
	case OutcomePartiallyRejected:
		return "partially_rejected"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// SyncOutcome is the interpreted result of one SyncBatch.
type SyncOutcome struct {
	Kind     OutcomeKind
	Page     int
	Pages    int
	Size     int
	NotFound int
	Err      error
	Elapsed  time.Duration
}

// Transmitted builds a success outcome.
func Transmitted(b SyncBatch) SyncOutcome {
	return SyncOutcome{Kind: OutcomeTransmitted, Page: b.Index, Pages: b.Total, Size: len(b.Items)}
}

// PartiallyRejected builds an outcome where n items were not found remotely.
func PartiallyRejected(b SyncBatch, n int) SyncOutcome {
	return SyncOutcome{Kind: OutcomePartiallyRejected, Page: b.Index, Pages: b.Total, Size: len(b.Items), NotFound: n}
}

// Failed builds a transport failure outcome.
func Failed(b SyncBatch, err error) SyncOutcome {
	return SyncOutcome{Kind: OutcomeFailed, Page: b.Index, Pages: b.Total, Size: len(b.Items), Err: err}
}

// Accepted returns how many items of the batch the remote took.
func (o SyncOutcome) Accepted() int {
	switch o.Kind {
	case OutcomeTransmitted:
		return o.Size
	case OutcomePartiallyRejected:
		return o.Size - o.NotFound
	default:
		return 0
	}
}

// EpisodeQuery is what the episode lookup needs to find a canonical episode.
type EpisodeQuery struct {
	SeriesTitle     string
	SeriesYear      *int
	SeriesNativeID  string
	Season          int
	Number          int
	EpisodeNativeID string
	EpisodeTitle    string
}

// EpisodeQueryOf builds the lookup query for an episode record.
func EpisodeQueryOf(r LocalRecord) (EpisodeQuery, bool) {
	ref, ok := r.Episode()
	if !ok {
		return EpisodeQuery{}, false
	}
	return EpisodeQuery{
		SeriesTitle:     ref.SeriesTitle,
		SeriesYear:      ref.SeriesYear,
		SeriesNativeID:  ref.SeriesNativeID,
		Season:          ref.Season,
		Number:          ref.Number,
		EpisodeNativeID: r.NativeID(),
		EpisodeTitle:    r.Title(),
	}, true
}

// Key is a stable, case-insensitive memo key for the query.
func (q EpisodeQuery) Key() string {
	series := q.SeriesNativeID
	if series == "" {
		series = q.SeriesTitle
		if q.SeriesYear != nil {
			series = fmt.Sprintf("%s (%d)", series, *q.SeriesYear)
		}
	}
	return strings.ToLower(fmt.Sprintf("%s|%d|%d|%s", series, q.Season, q.Number, q.EpisodeNativeID))
}
