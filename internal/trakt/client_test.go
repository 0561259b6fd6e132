// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package trakt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelsync/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.TraktConfig{
		BaseURL:     server.URL,
		ClientID:    "client-id",
		AccessToken: "token",
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestClient_Headers(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("trakt-api-version"); got != "2" {
			t.Errorf("trakt-api-version = %q", got)
		}
		if got := r.Header.Get("trakt-api-key"); got != "client-id" {
			t.Errorf("trakt-api-key = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/sync/ratings/movies" {
			t.Errorf("path = %q", r.URL.Path)
		}
		writeJSON(t, w, http.StatusOK, []RatedItem{{Rating: 8, Type: "movie", Movie: &Movie{Title: "Heat", Year: 1995}}})
	})

	items, err := client.Ratings(context.Background(), "movies")
	if err != nil {
		t.Fatalf("Ratings() error = %v", err)
	}
	if len(items) != 1 || items[0].Movie == nil || items[0].Movie.Title != "Heat" {
		t.Errorf("Ratings() = %+v", items)
	}
}

func TestClient_Post(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sync/history" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var req SyncRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(req.Movies) != 1 || req.Movies[0].WatchedAt != "released" {
			t.Errorf("body = %s", body)
		}
		writeJSON(t, w, http.StatusCreated, SyncResponse{
			Added:    SyncCounts{Movies: 1},
			NotFound: SyncNotFound{Episodes: []SyncEpisode{{IDs: SyncIDs{Trakt: 1}}}},
		})
	})

	resp, err := client.AddHistory(context.Background(), SyncRequest{
		Movies: []SyncMovie{{IDs: SyncIDs{IMDB: "tt0113277"}, WatchedAt: "released"}},
	})
	if err != nil {
		t.Fatalf("AddHistory() error = %v", err)
	}
	if resp.Added.Movies != 1 || len(resp.NotFound.Episodes) != 1 {
		t.Errorf("AddHistory() = %+v", resp)
	}
}

func TestClient_StatusHandling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		status        int
		wantNotFound  bool
		wantTemporary bool
	}{
		{name: "not found", status: http.StatusNotFound, wantNotFound: true},
		{name: "unauthorized", status: http.StatusUnauthorized},
		{name: "rate limited", status: http.StatusTooManyRequests, wantTemporary: true},
		{name: "server error", status: http.StatusBadGateway, wantTemporary: true},
		{name: "ok instead of created", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("  nope  "))
			})

			_, err := client.AddWatchlist(context.Background(), SyncRequest{})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Body != "nope" {
				t.Errorf("APIError = %+v", apiErr)
			}
			if errors.Is(err, ErrNotFound) != tt.wantNotFound {
				t.Errorf("errors.Is(ErrNotFound) = %v", !tt.wantNotFound)
			}
			if apiErr.Temporary() != tt.wantTemporary {
				t.Errorf("Temporary() = %v", apiErr.Temporary())
			}
			if !strings.Contains(err.Error(), "nope") {
				t.Errorf("Error() = %q", err.Error())
			}
		})
	}
}

func TestClient_SearchAndEpisode(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/imdb/tt0306414":
			if r.URL.Query().Get("type") != "show" {
				t.Errorf("type = %q", r.URL.Query().Get("type"))
			}
			writeJSON(t, w, http.StatusOK, []SearchResult{{Type: "show", Show: &Show{Title: "The Wire", IDs: IDs{Trakt: 1438}}}})
		case "/search/show":
			if r.URL.Query().Get("query") != "The Wire" {
				t.Errorf("query = %q", r.URL.Query().Get("query"))
			}
			writeJSON(t, w, http.StatusOK, []SearchResult{})
		case "/shows/1438/seasons/1/episodes/2":
			writeJSON(t, w, http.StatusOK, Episode{Season: 1, Number: 2, Title: "The Detail", IDs: IDs{Trakt: 1001}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	shows, err := client.SearchIMDb(ctx, "tt0306414", "show")
	if err != nil || len(shows) != 1 || shows[0].Show.IDs.Trakt != 1438 {
		t.Fatalf("SearchIMDb() = %+v, %v", shows, err)
	}
	if res, err := client.SearchShows(ctx, "The Wire"); err != nil || len(res) != 0 {
		t.Errorf("SearchShows() = %+v, %v", res, err)
	}
	ep, err := client.Episode(ctx, "1438", 1, 2)
	if err != nil || ep.Title != "The Detail" {
		t.Errorf("Episode() = %+v, %v", ep, err)
	}
	if _, err := client.Episode(ctx, "1438", 9, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing episode error = %v", err)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, []ListItem{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Watchlist(ctx, "movies"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
