// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/models"
	"github.com/tomtom215/reelsync/internal/runner"
	"github.com/tomtom215/reelsync/internal/sources"
	ws "github.com/tomtom215/reelsync/internal/websocket"
)

type watchedExport struct{ n int }

func (watchedExport) Site() string { return config.SiteLetterboxd }

func (s watchedExport) Load(context.Context) (models.Activity, error) {
	out := make([]models.LocalRecord, s.n)
	for i := range out {
		year := 2000 + i
		out[i] = models.MustLocalRecord(models.RecordFields{Category: models.CategoryMovie, Title: fmt.Sprintf("Film %d", i), Year: &year})
	}
	return models.Activity{Watched: out}, nil
}

// emptyCatalog holds nothing remotely and accepts every write.
type emptyCatalog struct{}

func (emptyCatalog) Rated(context.Context, models.Category) ([]models.RemoteEntry, error) {
	return nil, nil
}

func (emptyCatalog) Watched(context.Context, models.Category) ([]models.RemoteEntry, error) {
	return nil, nil
}

func (emptyCatalog) Watchlist(context.Context, models.Category) ([]models.RemoteEntry, error) {
	return nil, nil
}

func (emptyCatalog) AddRatings(_ context.Context, _ models.Category, items []models.SyncItem) (*models.SyncResponse, error) {
	return &models.SyncResponse{Added: models.CategoryCounts{Movies: len(items)}}, nil
}

func (emptyCatalog) AddToWatched(_ context.Context, _ models.Category, items []models.SyncItem) (*models.SyncResponse, error) {
	return &models.SyncResponse{Added: models.CategoryCounts{Movies: len(items)}}, nil
}

func (emptyCatalog) AddToWatchlist(_ context.Context, _ models.Category, items []models.SyncItem) (*models.SyncResponse, error) {
	return &models.SyncResponse{Added: models.CategoryCounts{Movies: len(items)}}, nil
}

// eventFrame decodes the frames the hub writes.
type eventFrame struct {
	Type string `json:"type"`
	Data struct {
		RunID   string `json:"run_id"`
		Site    string `json:"site"`
		Message *struct {
			Severity string `json:"severity"`
			Text     string `json:"text"`
		} `json:"message"`
		Error string `json:"error"`
	} `json:"data"`
}

func startEventHub(t *testing.T) *ws.Hub {
	t.Helper()
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.RunWithContext(ctx) }()
	t.Cleanup(cancel)
	return hub
}

func eventsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sync/events"
}

func TestSyncEvents_StreamsRun(t *testing.T) {
	t.Parallel()

	hub := startEventHub(t)
	cfg := &config.Config{
		Sync: config.SyncConfig{BatchSize: 2, AmbiguityPolicy: "unique"},
		Letterboxd: config.LetterboxdConfig{
			Intents:    []string{"watched"},
			Categories: []string{"movie"},
		},
	}
	r, err := runner.New(runner.Options{
		Config:  cfg,
		Catalog: emptyCatalog{},
		Sources: func(string) (sources.Source, error) { return watchedExport{n: 3}, nil },
		Events:  hub,
	})
	if err != nil {
		t.Fatalf("runner.New() error = %v", err)
	}
	h := NewHandler(r, nil, "test")
	h.SetEventHub(hub, nil)
	srv := httptest.NewServer(NewRouter(h, testMiddlewareConfig()))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial(eventsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Post(srv.URL+"/api/v1/sync/letterboxd", "application/json", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	defer r.Wait()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var texts []string
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v (messages so far %q)", err, texts)
		}
		var f eventFrame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
		if f.Data.Site != config.SiteLetterboxd || f.Data.RunID == "" {
			t.Errorf("frame without run: %s", data)
		}
		if f.Type == runner.EventMessage && f.Data.Message != nil {
			texts = append(texts, f.Data.Message.Text)
		}
		if f.Type == runner.EventFinished {
			if f.Data.Error != "" {
				t.Errorf("run failed: %s", f.Data.Error)
			}
			break
		}
	}

	var sent bool
	for _, text := range texts {
		sent = sent || strings.HasPrefix(text, "Sent movies page 1/2")
	}
	if !sent {
		t.Errorf("no page message in %q", texts)
	}
}

func TestSyncEvents_Disabled(t *testing.T) {
	t.Parallel()

	w, resp := do(t, newTestRouter(&fakeSync{}, nil), http.MethodGet, "/api/v1/sync/events")
	if w.Code != http.StatusServiceUnavailable || resp.Error.Code != ErrCodeServiceUnavailable {
		t.Errorf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestSyncEvents_Origin(t *testing.T) {
	t.Parallel()

	hub := startEventHub(t)
	h := NewHandler(&fakeSync{}, nil, "test")
	h.SetEventHub(hub, []string{"http://localhost:3000"})
	srv := httptest.NewServer(NewRouter(h, testMiddlewareConfig()))
	t.Cleanup(srv.Close)

	tests := []struct {
		name   string
		origin string
		wantOK bool
	}{
		{"no origin", "", true},
		{"configured origin", "http://localhost:3000", true},
		{"same host", srv.URL, true},
		{"foreign origin", "http://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(eventsURL(srv), header)
			if conn != nil {
				_ = conn.Close()
			}
			if tt.wantOK {
				if err != nil {
					t.Errorf("dial error = %v", err)
				}
				return
			}
			if err == nil || resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("dial = %v, want 403", err)
			}
		})
	}
}
