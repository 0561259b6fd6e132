// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package sources

import (
	"context"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/models"
)

// Letterboxd export file names and columns.
const (
	lbRatingsFile   = "ratings.csv"
	lbWatchedFile   = "watched.csv"
	lbDiaryFile     = "diary.csv"
	lbWatchlistFile = "watchlist.csv"

	lbColDate        = "Date"
	lbColName        = "Name"
	lbColYear        = "Year"
	lbColRating      = "Rating"
	lbColWatchedDate = "Watched Date"
)

// Letterboxd reads a Letterboxd data export directory.
type Letterboxd struct {
	dir              string
	watchedOnRelease bool
}

// NewLetterboxd creates a source for cfg.ExportDir.
func NewLetterboxd(cfg config.LetterboxdConfig) *Letterboxd {
	return &Letterboxd{dir: cfg.ExportDir, watchedOnRelease: cfg.WatchedOnReleaseDay}
}

// Site returns the site name.
func (l *Letterboxd) Site() string { return config.SiteLetterboxd }

// Load parses the export. Watched is the diary plus every watched.csv film
// that has no diary entry with the same title and year.
func (l *Letterboxd) Load(ctx context.Context) (models.Activity, error) {
	var act models.Activity
	if err := checkDir(l.dir); err != nil {
		return act, err
	}

	var err error
	if act.Ratings, err = l.ratings(ctx); err != nil {
		return models.Activity{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Activity{}, err
	}
	if act.Watched, err = l.watched(ctx); err != nil {
		return models.Activity{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Activity{}, err
	}
	if act.Watchlist, err = l.watchlist(ctx); err != nil {
		return models.Activity{}, err
	}
	return act, nil
}

func (l *Letterboxd) read(ctx context.Context, name string) ([]row, *collector, error) {
	rows, skipped, err := readCSV(filepath.Join(l.dir, name), lbColName)
	if err != nil {
		return nil, nil, err
	}
	return rows, &collector{ctx: ctx, file: name, skipped: skipped}, nil
}

func (l *Letterboxd) ratings(ctx context.Context) ([]models.LocalRecord, error) {
	rows, c, err := l.read(ctx, lbRatingsFile)
	if err != nil {
		return nil, err
	}
	var out []models.LocalRecord
	for _, r := range rows {
		rating, ok := starsToRating(r.get(lbColRating))
		if !ok {
			c.skipped++
			continue
		}
		c.add(&out, models.RecordFields{
			Category: models.CategoryMovie,
			Title:    r.get(lbColName),
			Year:     r.year(lbColYear),
			Rating:   rating,
			AddedAt:  r.date(lbColDate),
		})
	}
	c.done(len(out))
	return out, nil
}

func (l *Letterboxd) watched(ctx context.Context) ([]models.LocalRecord, error) {
	diary, dc, err := l.read(ctx, lbDiaryFile)
	if err != nil {
		return nil, err
	}
	watched, wc, err := l.read(ctx, lbWatchedFile)
	if err != nil {
		return nil, err
	}

	logged := make(map[string]struct{}, len(diary))
	var out []models.LocalRecord
	for _, r := range diary {
		logged[filmKey(r)] = struct{}{}
		dc.add(&out, l.watchedFields(r))
	}
	dc.done(len(out))

	n := len(out)
	for _, r := range watched {
		if _, ok := logged[filmKey(r)]; ok {
			continue
		}
		wc.add(&out, l.watchedFields(r))
	}
	wc.done(len(out) - n)
	return out, nil
}

// watchedFields uses the diary date when present; otherwise the record falls
// back to the release day or the date the film was logged.
func (l *Letterboxd) watchedFields(r row) models.RecordFields {
	return models.RecordFields{
		Category:         models.CategoryMovie,
		Title:            r.get(lbColName),
		Year:             r.year(lbColYear),
		AddedAt:          r.date(lbColDate),
		WatchedAt:        r.date(lbColWatchedDate),
		WatchedOnRelease: l.watchedOnRelease,
	}
}

func (l *Letterboxd) watchlist(ctx context.Context) ([]models.LocalRecord, error) {
	rows, c, err := l.read(ctx, lbWatchlistFile)
	if err != nil {
		return nil, err
	}
	var out []models.LocalRecord
	for _, r := range rows {
		c.add(&out, models.RecordFields{
			Category: models.CategoryMovie,
			Title:    r.get(lbColName),
			Year:     r.year(lbColYear),
			AddedAt:  r.date(lbColDate),
		})
	}
	c.done(len(out))
	return out, nil
}

func filmKey(r row) string {
	return strings.ToLower(r.get(lbColName)) + "|" + r.get(lbColYear)
}

// starsToRating maps 0.5-5 stars to Trakt's 1-10 scale, rounding up.
func starsToRating(s string) (int, bool) {
	stars, err := strconv.ParseFloat(s, 64)
	if err != nil || stars <= 0 {
		return 0, false
	}
	rating := int(math.Ceil(stars * 2))
	if rating > 10 {
		return 0, false
	}
	return rating, true
}
