// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package trakt

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
)

// CircuitBreakerClient wraps an API with the circuit breaker pattern.
//
// Only transport errors, 5xx and 429 replies count as failures. A 404 or a
// rejected payload is a valid answer and leaves the breaker alone.
type CircuitBreakerClient struct {
	client API
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

// NewCircuitBreakerClient wraps client.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewCircuitBreakerClient(client API) *CircuitBreakerClient {
	return newCircuitBreakerClient(client, "trakt-api", 2*time.Minute)
}

func newCircuitBreakerClient(client API, name string, openTimeout time.Duration) *CircuitBreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     openTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		IsSuccessful: isSuccessful,
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: name}
}

// isSuccessful decides which errors count against the breaker.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.Temporary()
	}
	return errors.Is(err, context.Canceled)
}

// State returns the current breaker state name.
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

func (cbc *CircuitBreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := cbc.cb.Execute(fn)

	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
		logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
	case isSuccessful(err):
		// A definitive answer such as 404.
		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		counts := cbc.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
	}
	return result, err
}

// castResult safely type-casts the circuit breaker result with error checking
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func (cbc *CircuitBreakerClient) Ratings(ctx context.Context, typ string) ([]RatedItem, error) {
	return castResult[[]RatedItem](cbc.execute(func() (any, error) {
		return cbc.client.Ratings(ctx, typ)
	}))
}

func (cbc *CircuitBreakerClient) WatchedMovies(ctx context.Context) ([]WatchedMovie, error) {
	return castResult[[]WatchedMovie](cbc.execute(func() (any, error) {
		return cbc.client.WatchedMovies(ctx)
	}))
}

func (cbc *CircuitBreakerClient) WatchedShows(ctx context.Context) ([]WatchedShow, error) {
	return castResult[[]WatchedShow](cbc.execute(func() (any, error) {
		return cbc.client.WatchedShows(ctx)
	}))
}

func (cbc *CircuitBreakerClient) Watchlist(ctx context.Context, typ string) ([]ListItem, error) {
	return castResult[[]ListItem](cbc.execute(func() (any, error) {
		return cbc.client.Watchlist(ctx, typ)
	}))
}

func (cbc *CircuitBreakerClient) AddRatings(ctx context.Context, req SyncRequest) (*SyncResponse, error) {
	return castResult[*SyncResponse](cbc.execute(func() (any, error) {
		return cbc.client.AddRatings(ctx, req)
	}))
}

func (cbc *CircuitBreakerClient) AddHistory(ctx context.Context, req SyncRequest) (*SyncResponse, error) {
	return castResult[*SyncResponse](cbc.execute(func() (any, error) {
		return cbc.client.AddHistory(ctx, req)
	}))
}

func (cbc *CircuitBreakerClient) AddWatchlist(ctx context.Context, req SyncRequest) (*SyncResponse, error) {
	return castResult[*SyncResponse](cbc.execute(func() (any, error) {
		return cbc.client.AddWatchlist(ctx, req)
	}))
}

func (cbc *CircuitBreakerClient) SearchIMDb(ctx context.Context, imdbID, typ string) ([]SearchResult, error) {
	return castResult[[]SearchResult](cbc.execute(func() (any, error) {
		return cbc.client.SearchIMDb(ctx, imdbID, typ)
	}))
}

func (cbc *CircuitBreakerClient) SearchShows(ctx context.Context, query string) ([]SearchResult, error) {
	return castResult[[]SearchResult](cbc.execute(func() (any, error) {
		return cbc.client.SearchShows(ctx, query)
	}))
}

func (cbc *CircuitBreakerClient) Episode(ctx context.Context, showID string, season, number int) (*Episode, error) {
	return castResult[*Episode](cbc.execute(func() (any, error) {
		return cbc.client.Episode(ctx, showID, season, number)
	}))
}
