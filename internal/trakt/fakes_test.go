// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package trakt

import (
	"context"
	"fmt"
	"sync"
)

// fakeAPI is an in-memory API. Unset data yields empty lists.
type fakeAPI struct {
	mu sync.Mutex

	err      error
	ratings  map[string][]RatedItem
	watchedM []WatchedMovie
	watchedS []WatchedShow
	list     map[string][]ListItem
	imdb     map[string][]SearchResult
	search   map[string][]SearchResult
	episodes map[string]Episode
	reply    *SyncResponse

	calls    []string
	requests []SyncRequest
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) Ratings(_ context.Context, typ string) ([]RatedItem, error) {
	if err := f.record("ratings/" + typ); err != nil {
		return nil, err
	}
	return f.ratings[typ], nil
}

func (f *fakeAPI) WatchedMovies(context.Context) ([]WatchedMovie, error) {
	if err := f.record("watched/movies"); err != nil {
		return nil, err
	}
	return f.watchedM, nil
}

func (f *fakeAPI) WatchedShows(context.Context) ([]WatchedShow, error) {
	if err := f.record("watched/shows"); err != nil {
		return nil, err
	}
	return f.watchedS, nil
}

func (f *fakeAPI) Watchlist(_ context.Context, typ string) ([]ListItem, error) {
	if err := f.record("watchlist/" + typ); err != nil {
		return nil, err
	}
	return f.list[typ], nil
}

func (f *fakeAPI) write(call string, req SyncRequest) (*SyncResponse, error) {
	if err := f.record(call); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.reply != nil {
		return f.reply, nil
	}
	return &SyncResponse{}, nil
}

func (f *fakeAPI) AddRatings(_ context.Context, req SyncRequest) (*SyncResponse, error) {
	return f.write("add/ratings", req)
}

func (f *fakeAPI) AddHistory(_ context.Context, req SyncRequest) (*SyncResponse, error) {
	return f.write("add/history", req)
}

func (f *fakeAPI) AddWatchlist(_ context.Context, req SyncRequest) (*SyncResponse, error) {
	return f.write("add/watchlist", req)
}

func (f *fakeAPI) SearchIMDb(_ context.Context, imdbID, typ string) ([]SearchResult, error) {
	if err := f.record("imdb/" + typ + "/" + imdbID); err != nil {
		return nil, err
	}
	if res, ok := f.imdb[imdbID]; ok {
		return res, nil
	}
	return nil, &APIError{StatusCode: 404, Status: "404 Not Found"}
}

func (f *fakeAPI) SearchShows(_ context.Context, query string) ([]SearchResult, error) {
	if err := f.record("search/" + query); err != nil {
		return nil, err
	}
	return f.search[query], nil
}

func (f *fakeAPI) Episode(_ context.Context, showID string, season, number int) (*Episode, error) {
	key := fmt.Sprintf("%s/%d/%d", showID, season, number)
	if err := f.record("episode/" + key); err != nil {
		return nil, err
	}
	ep, ok := f.episodes[key]
	if !ok {
		return nil, &APIError{StatusCode: 404, Status: "404 Not Found"}
	}
	return &ep, nil
}
