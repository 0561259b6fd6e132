// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package trakt

import "time"

// IDs holds external identifiers for a media item
type IDs struct {
	Trakt int    `json:"trakt,omitempty"`
	Slug  string `json:"slug,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	TMDB  int    `json:"tmdb,omitempty"`
	TVDB  int    `json:"tvdb,omitempty"`
}

// Movie represents a Trakt movie
type Movie struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   IDs    `json:"ids"`
}

// Show represents a Trakt TV show
type Show struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   IDs    `json:"ids"`
}

// Episode represents a Trakt episode
type Episode struct {
	Season int    `json:"season"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	IDs    IDs    `json:"ids"`
}

// RatedItem is one entry of /sync/ratings.
type RatedItem struct {
	RatedAt time.Time `json:"rated_at"`
	Rating  int       `json:"rating"`
	Type    string    `json:"type"`
	Movie   *Movie    `json:"movie,omitempty"`
	Show    *Show     `json:"show,omitempty"`
	Episode *Episode  `json:"episode,omitempty"`
}

// WatchedMovie is one entry of /sync/watched/movies.
type WatchedMovie struct {
	Plays         int       `json:"plays"`
	LastWatchedAt time.Time `json:"last_watched_at"`
	Movie         Movie     `json:"movie"`
}

// WatchedShow is one entry of /sync/watched/shows.
type WatchedShow struct {
	Plays         int             `json:"plays"`
	LastWatchedAt time.Time       `json:"last_watched_at"`
	Show          Show            `json:"show"`
	Seasons       []WatchedSeason `json:"seasons"`
}

// WatchedSeason lists the watched episodes of a season.
type WatchedSeason struct {
	Number   int              `json:"number"`
	Episodes []WatchedEpisode `json:"episodes"`
}

// WatchedEpisode is one watched episode in a season breakdown.
type WatchedEpisode struct {
	Number int `json:"number"`
	Plays  int `json:"plays"`
}

// ListItem is one entry of /sync/watchlist.
type ListItem struct {
	Rank     int       `json:"rank"`
	ListedAt time.Time `json:"listed_at"`
	Type     string    `json:"type"`
	Movie    *Movie    `json:"movie,omitempty"`
	Show     *Show     `json:"show,omitempty"`
	Episode  *Episode  `json:"episode,omitempty"`
}

// SearchResult is one hit of the /search endpoints.
type SearchResult struct {
	Type    string   `json:"type"`
	Score   float64  `json:"score"`
	Movie   *Movie   `json:"movie,omitempty"`
	Show    *Show    `json:"show,omitempty"`
	Episode *Episode `json:"episode,omitempty"`
}

// SyncIDs holds IDs for sync operations
type SyncIDs struct {
	Trakt int    `json:"trakt,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
}

// SyncMovie is a movie in a sync request. Title and Year identify it when
// no id is known.
type SyncMovie struct {
	Title     string  `json:"title,omitempty"`
	Year      int     `json:"year,omitempty"`
	IDs       SyncIDs `json:"ids"`
	Rating    int     `json:"rating,omitempty"`
	RatedAt   string  `json:"rated_at,omitempty"`
	WatchedAt string  `json:"watched_at,omitempty"` // ISO 8601 or "released"
}

// SyncShow is a show in a sync request.
type SyncShow struct {
	Title   string  `json:"title,omitempty"`
	Year    int     `json:"year,omitempty"`
	IDs     SyncIDs `json:"ids"`
	Rating  int     `json:"rating,omitempty"`
	RatedAt string  `json:"rated_at,omitempty"`
}

// SyncEpisode is an episode in a sync request, addressed by id.
type SyncEpisode struct {
	IDs       SyncIDs `json:"ids"`
	Rating    int     `json:"rating,omitempty"`
	RatedAt   string  `json:"rated_at,omitempty"`
	WatchedAt string  `json:"watched_at,omitempty"`
}

// SyncRequest is the body of the /sync write endpoints.
type SyncRequest struct {
	Movies   []SyncMovie   `json:"movies,omitempty"`
	Shows    []SyncShow    `json:"shows,omitempty"`
	Episodes []SyncEpisode `json:"episodes,omitempty"`
}

// Len returns the number of items in the request.
func (r SyncRequest) Len() int {
	return len(r.Movies) + len(r.Shows) + len(r.Episodes)
}

// SyncCounts counts items per type in a sync response.
type SyncCounts struct {
	Movies   int `json:"movies"`
	Shows    int `json:"shows"`
	Seasons  int `json:"seasons"`
	Episodes int `json:"episodes"`
}

// SyncNotFound echoes the items Trakt could not match.
type SyncNotFound struct {
	Movies   []SyncMovie   `json:"movies"`
	Shows    []SyncShow    `json:"shows"`
	Episodes []SyncEpisode `json:"episodes"`
}

// SyncResponse is the reply of the /sync write endpoints.
type SyncResponse struct {
	Added    SyncCounts   `json:"added"`
	Existing SyncCounts   `json:"existing"`
	Updated  SyncCounts   `json:"updated"`
	NotFound SyncNotFound `json:"not_found"`
}
