// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

// Package history persists run reports in BadgerDB.
package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/reconcile"
)

// Key prefixes for BadgerDB storage
const (
	reportKeyPrefix = "report:"
	runIDKeyPrefix  = "run_id:"
)

// ErrNotFound is returned when no report has the requested run id.
var ErrNotFound = errors.New("run report not found")

// Store keeps the most recent run reports, newest first on read.
type Store struct {
	db   *badger.DB
	keep int
}

// Open opens the store described by cfg.
func Open(cfg config.HistoryConfig) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	keep := cfg.Keep
	if keep < 1 {
		keep = 50
	}
	logging.Info().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Int("keep", keep).Msg("History store opened")
	return &Store{db: db, keep: keep}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// reportKey orders reports by start time; the run id breaks ties.
func reportKey(r *reconcile.Report) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", reportKeyPrefix, r.StartedAt.UnixNano(), r.RunID))
}

// Save stores report and prunes everything past the retention limit.
func (s *Store) Save(ctx context.Context, report *reconcile.Report) error {
	if report.RunID == "" {
		return errors.New("save run report: empty run id")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	key := reportKey(report)
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set report: %w", err)
		}
		if err := txn.Set([]byte(runIDKeyPrefix+report.RunID), key); err != nil {
			return fmt.Errorf("set run id index: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	pruned, err := s.prune()
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to prune run history")
	} else if pruned > 0 {
		logging.Ctx(ctx).Debug().Int("pruned", pruned).Msg("Pruned run history")
	}
	return nil
}

// Get returns the report of runID.
func (s *Store) Get(_ context.Context, runID string) (*reconcile.Report, error) {
	var report reconcile.Report
	err := s.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get([]byte(runIDKeyPrefix + runID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get run id index: %w", err)
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get report: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &report)
		})
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns up to limit reports, newest first. limit <= 0 returns all.
func (s *Store) List(_ context.Context, limit int) ([]reconcile.Report, error) {
	reports := make([]reconcile.Report, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(reportKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append([]byte(reportKeyPrefix), 0xff)); it.Valid(); it.Next() {
			if limit > 0 && len(reports) >= limit {
				break
			}
			var r reconcile.Report
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return fmt.Errorf("decode report %s: %w", it.Item().Key(), err)
			}
			reports = append(reports, r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list run reports: %w", err)
	}
	return reports, nil
}

// prune deletes the oldest reports beyond the retention limit.
func (s *Store) prune() (int, error) {
	type stale struct{ key, runID []byte }
	var victims []stale

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(reportKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		n := 0
		for it.Seek(append([]byte(reportKeyPrefix), 0xff)); it.Valid(); it.Next() {
			n++
			if n <= s.keep {
				continue
			}
			key := it.Item().KeyCopy(nil)
			// key layout is prefix + timestamp + ":" + run id
			runID := key[len(reportKeyPrefix)+21:]
			victims = append(victims, stale{key: key, runID: runID})
		}
		return nil
	})
	if err != nil || len(victims) == 0 {
		return 0, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, v := range victims {
			if err := txn.Delete(v.key); err != nil {
				return err
			}
			if err := txn.Delete(append([]byte(runIDKeyPrefix), v.runID...)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete old reports: %w", err)
	}
	return len(victims), nil
}
