// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/reelsync/internal/validation"
)

// Category is the media kind of a record.
type Category string

const (
	CategoryMovie   Category = "movie"
	CategoryShow    Category = "show"
	CategoryEpisode Category = "episode"
)

// Categories lists every category in upload order.
var Categories = []Category{CategoryMovie, CategoryShow, CategoryEpisode}

// Plural returns the collection name Trakt uses for the category.
func (c Category) Plural() string {
	return string(c) + "s"
}

// ParseCategory accepts singular or plural names, case-insensitively.
func ParseCategory(s string) (Category, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "movie":
		return CategoryMovie, nil
	case "show":
		return CategoryShow, nil
	case "episode":
		return CategoryEpisode, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// Intent is the kind of remote state being synchronized.
type Intent string

const (
	IntentRating    Intent = "rating"
	IntentWatched   Intent = "watched"
	IntentWatchlist Intent = "watchlist"
)

// Intents lists every intent in stage order.
var Intents = []Intent{IntentRating, IntentWatched, IntentWatchlist}

// ParseIntent accepts "rating(s)", "watched"/"history" and "watchlist".
func ParseIntent(s string) (Intent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rating", "ratings":
		return IntentRating, nil
	case "watched", "history":
		return IntentWatched, nil
	case "watchlist":
		return IntentWatchlist, nil
	default:
		return "", fmt.Errorf("unknown intent %q", s)
	}
}

// WatchedOnRelease is the watched_at value Trakt interprets as the release date.
const WatchedOnRelease = "released"

// EpisodeRef points an episode record at its series.
// Season and Number are zero when the source does not know them; the episode
// must then be resolved through its own native id.
type EpisodeRef struct {
	SeriesTitle    string `validate:"required"`
	SeriesYear     *int   `validate:"omitempty,gte=1870,lte=2200"`
	SeriesNativeID string `validate:"omitempty,imdb_id"`
	Season         int    `validate:"gte=0"`
	Number         int    `validate:"gte=0"`
}

// HasCoordinates reports whether season and episode number are known.
func (e EpisodeRef) HasCoordinates() bool {
	return e.Number > 0
}

// RecordFields is the input to NewLocalRecord.
type RecordFields struct {
	Category Category `validate:"required,oneof=movie show episode"`
	Title    string   `validate:"required,max=1000"`
	Year     *int     `validate:"omitempty,gte=1870,lte=2200"`
	NativeID string   `validate:"omitempty,imdb_id"`
	Rating   int      `validate:"omitempty,min=1,max=10"`
	AddedAt  time.Time
	// WatchedAt is the viewing time. Zero means unknown.
	WatchedAt time.Time
	// WatchedOnRelease asks Trakt to use the release date when WatchedAt is unknown.
	WatchedOnRelease bool
	Episode          *EpisodeRef
}

// LocalRecord is one immutable activity entry parsed from a source.
type LocalRecord struct {
	f RecordFields
}

// NewLocalRecord validates fields and builds a record. Titles and ids are
// trimmed; an Episode reference is required for episodes and rejected for
// other categories.
func NewLocalRecord(fields RecordFields) (LocalRecord, error) {
	fields.Title = strings.TrimSpace(fields.Title)
	fields.NativeID = strings.TrimSpace(fields.NativeID)
	if fields.Year != nil {
		y := *fields.Year
		fields.Year = &y
	}
	if fields.Episode != nil {
		ep := *fields.Episode
		ep.SeriesTitle = strings.TrimSpace(ep.SeriesTitle)
		ep.SeriesNativeID = strings.TrimSpace(ep.SeriesNativeID)
		if ep.SeriesYear != nil {
			y := *ep.SeriesYear
			ep.SeriesYear = &y
		}
		fields.Episode = &ep
	}

	if verr := validation.ValidateStruct(&fields); verr != nil {
		return LocalRecord{}, fmt.Errorf("invalid %s record %q: %w", fields.Category, fields.Title, verr)
	}

	switch {
	case fields.Category == CategoryEpisode && fields.Episode == nil:
		return LocalRecord{}, fmt.Errorf("invalid episode record %q: missing episode reference", fields.Title)
	case fields.Category != CategoryEpisode && fields.Episode != nil:
		return LocalRecord{}, fmt.Errorf("invalid %s record %q: episode reference only allowed on episodes", fields.Category, fields.Title)
	case fields.Episode != nil && !fields.Episode.HasCoordinates() && fields.NativeID == "":
		return LocalRecord{}, fmt.Errorf("invalid episode record %q: needs season/episode numbers or an episode id", fields.Title)
	}

	return LocalRecord{f: fields}, nil
}

// MustLocalRecord is NewLocalRecord for fixtures; it panics on invalid input.
func MustLocalRecord(fields RecordFields) LocalRecord {
	r, err := NewLocalRecord(fields)
	if err != nil {
		panic(err)
	}
	return r
}

func (r LocalRecord) Category() Category { return r.f.Category }
func (r LocalRecord) Title() string      { return r.f.Title }
func (r LocalRecord) NativeID() string   { return r.f.NativeID }
func (r LocalRecord) Rating() int        { return r.f.Rating }
func (r LocalRecord) AddedAt() time.Time { return r.f.AddedAt }

// Year returns the release year and whether it is known.
func (r LocalRecord) Year() (int, bool) {
	if r.f.Year == nil {
		return 0, false
	}
	return *r.f.Year, true
}

// YearPtr returns a copy of the year pointer (nil when unknown).
func (r LocalRecord) YearPtr() *int {
	if r.f.Year == nil {
		return nil
	}
	y := *r.f.Year
	return &y
}

// WatchedAt returns the time the item was watched, falling back to the date
// it was added to the source.
func (r LocalRecord) WatchedAt() time.Time {
	if !r.f.WatchedAt.IsZero() {
		return r.f.WatchedAt
	}
	return r.f.AddedAt
}

// WatchedOnRelease reports whether the watched time should be the release date.
func (r LocalRecord) WatchedOnRelease() bool {
	return r.f.WatchedAt.IsZero() && r.f.WatchedOnRelease
}

// Episode returns the episode reference; ok is false for movies and shows.
func (r LocalRecord) Episode() (EpisodeRef, bool) {
	if r.f.Episode == nil {
		return EpisodeRef{}, false
	}
	ref := *r.f.Episode
	if ref.SeriesYear != nil {
		y := *ref.SeriesYear
		ref.SeriesYear = &y
	}
	return ref, true
}

// String is used in log lines.
func (r LocalRecord) String() string {
	var b strings.Builder
	b.WriteString(r.f.Title)
	if r.f.Year != nil {
		fmt.Fprintf(&b, " (%d)", *r.f.Year)
	}
	if ep := r.f.Episode; ep != nil && ep.HasCoordinates() {
		fmt.Fprintf(&b, " S%02dE%02d", ep.Season, ep.Number)
	}
	return b.String()
}

// Activity is everything a source produced for one run.
type Activity struct {
	Ratings   []LocalRecord
	Watched   []LocalRecord
	Watchlist []LocalRecord
}

// ForIntent returns the records collected for intent.
func (a Activity) ForIntent(intent Intent) []LocalRecord {
	switch intent {
	case IntentRating:
		return a.Ratings
	case IntentWatched:
		return a.Watched
	case IntentWatchlist:
		return a.Watchlist
	default:
		return nil
	}
}

// Len returns the total number of records across intents.
func (a Activity) Len() int {
	return len(a.Ratings) + len(a.Watched) + len(a.Watchlist)
}
