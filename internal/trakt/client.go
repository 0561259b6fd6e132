// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package trakt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
)

const traktAPIVersion = "2"

// ErrNotFound matches an APIError with status 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-success HTTP reply from Trakt.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return "trakt api: " + e.Status
	}
	return fmt.Sprintf("trakt api: %s - %s", e.Status, e.Body)
}

// Is lets errors.Is(err, ErrNotFound) match 404 replies.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Temporary reports whether the error is a server side or rate limit failure.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// API is the set of Trakt calls used by the catalog and the episode lookup.
type API interface {
	Ratings(ctx context.Context, typ string) ([]RatedItem, error)
	WatchedMovies(ctx context.Context) ([]WatchedMovie, error)
	WatchedShows(ctx context.Context) ([]WatchedShow, error)
	Watchlist(ctx context.Context, typ string) ([]ListItem, error)
	AddRatings(ctx context.Context, req SyncRequest) (*SyncResponse, error)
	AddHistory(ctx context.Context, req SyncRequest) (*SyncResponse, error)
	AddWatchlist(ctx context.Context, req SyncRequest) (*SyncResponse, error)
	SearchIMDb(ctx context.Context, imdbID, typ string) ([]SearchResult, error)
	SearchShows(ctx context.Context, query string) ([]SearchResult, error)
	Episode(ctx context.Context, showID string, season, number int) (*Episode, error)
}

// Client is a rate limited Trakt API client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	clientID    string
	accessToken string
	limiter     *rate.Limiter
}

// NewClient creates a client from cfg.
func NewClient(cfg config.TraktConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit, burst := rate.Limit(cfg.RateLimit), cfg.RateBurst
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		clientID:    cfg.ClientID,
		accessToken: cfg.AccessToken,
		limiter:     rate.NewLimiter(limit, burst),
	}
}

// request describes one API call. endpoint is the metrics label.
type request struct {
	method   string
	path     string
	endpoint string
	query    url.Values
	body     any
	want     int
}

// setTraktHeaders adds required Trakt API headers to a request
func (c *Client) setTraktHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", traktAPIVersion)
	req.Header.Set("trakt-api-key", c.clientID)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var body io.Reader = http.NoBody
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setTraktHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordTraktRequest(r.method, r.endpoint, 0, time.Since(start))
		return fmt.Errorf("trakt api request %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()
	metrics.RecordTraktRequest(r.method, r.endpoint, resp.StatusCode, time.Since(start))

	logging.Ctx(ctx).Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Trakt request")

	if resp.StatusCode != r.want {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(respBody))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func get[T any](ctx context.Context, c *Client, path, endpoint string, query url.Values) (T, error) {
	var out T
	err := c.do(ctx, request{method: http.MethodGet, path: path, endpoint: endpoint, query: query, want: http.StatusOK}, &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path string, req SyncRequest) (*SyncResponse, error) {
	var out SyncResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: path, endpoint: path, body: req, want: http.StatusCreated}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ratings returns the user's ratings of typ (movies, shows or episodes).
func (c *Client) Ratings(ctx context.Context, typ string) ([]RatedItem, error) {
	return get[[]RatedItem](ctx, c, "/sync/ratings/"+typ, "/sync/ratings/"+typ, nil)
}

// WatchedMovies returns the user's watched movies.
func (c *Client) WatchedMovies(ctx context.Context) ([]WatchedMovie, error) {
	return get[[]WatchedMovie](ctx, c, "/sync/watched/movies", "/sync/watched/movies", nil)
}

// WatchedShows returns the user's watched shows with their season breakdown.
func (c *Client) WatchedShows(ctx context.Context) ([]WatchedShow, error) {
	return get[[]WatchedShow](ctx, c, "/sync/watched/shows", "/sync/watched/shows", nil)
}

// Watchlist returns the user's watchlist entries of typ.
func (c *Client) Watchlist(ctx context.Context, typ string) ([]ListItem, error) {
	return get[[]ListItem](ctx, c, "/sync/watchlist/"+typ, "/sync/watchlist/"+typ, nil)
}

// AddRatings posts to /sync/ratings.
func (c *Client) AddRatings(ctx context.Context, req SyncRequest) (*SyncResponse, error) {
	return c.post(ctx, "/sync/ratings", req)
}

// AddHistory posts to /sync/history.
func (c *Client) AddHistory(ctx context.Context, req SyncRequest) (*SyncResponse, error) {
	return c.post(ctx, "/sync/history", req)
}

// AddWatchlist posts to /sync/watchlist.
func (c *Client) AddWatchlist(ctx context.Context, req SyncRequest) (*SyncResponse, error) {
	return c.post(ctx, "/sync/watchlist", req)
}

// SearchIMDb looks up an IMDb id. typ restricts the result type ("show",
// "episode", "movie").
func (c *Client) SearchIMDb(ctx context.Context, imdbID, typ string) ([]SearchResult, error) {
	q := url.Values{}
	if typ != "" {
		q.Set("type", typ)
	}
	return get[[]SearchResult](ctx, c, "/search/imdb/"+url.PathEscape(imdbID), "/search/imdb", q)
}

// SearchShows runs a text search for shows.
func (c *Client) SearchShows(ctx context.Context, query string) ([]SearchResult, error) {
	return get[[]SearchResult](ctx, c, "/search/show", "/search/show", url.Values{"query": {query}})
}

// Episode returns one episode of a show. showID is a Trakt id, slug or IMDb id.
func (c *Client) Episode(ctx context.Context, showID string, season, number int) (*Episode, error) {
	path := fmt.Sprintf("/shows/%s/seasons/%s/episodes/%s",
		url.PathEscape(showID), strconv.Itoa(season), strconv.Itoa(number))
	ep, err := get[Episode](ctx, c, path, "/shows/episode", nil)
	if err != nil {
		return nil, err
	}
	return &ep, nil
}
