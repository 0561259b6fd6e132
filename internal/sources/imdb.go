// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package sources

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/models"
)

const (
	imdbRatingsFile   = "ratings.csv"
	imdbWatchlistFile = "watchlist.csv"

	imdbColConst     = "Const"
	imdbColRating    = "Your Rating"
	imdbColDateRated = "Date Rated"
	imdbColCreated   = "Created"
	imdbColTitle     = "Title"
	imdbColType      = "Title Type"
	imdbColYear      = "Year"
)

// IMDb reads the CSV files of an IMDb ratings and watchlist export.
type IMDb struct {
	dir string
}

// NewIMDb creates a source for cfg.ExportDir.
func NewIMDb(cfg config.IMDbConfig) *IMDb {
	return &IMDb{dir: cfg.ExportDir}
}

// Site returns the site name.
func (m *IMDb) Site() string { return config.SiteIMDb }

// Load parses ratings.csv and watchlist.csv. IMDb has no watch history, so
// Watched is always empty.
func (m *IMDb) Load(ctx context.Context) (models.Activity, error) {
	if err := checkDir(m.dir); err != nil {
		return models.Activity{}, err
	}

	ratings, err := m.parse(ctx, imdbRatingsFile, imdbColDateRated, true)
	if err != nil {
		return models.Activity{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Activity{}, err
	}
	watchlist, err := m.parse(ctx, imdbWatchlistFile, imdbColCreated, false)
	if err != nil {
		return models.Activity{}, err
	}
	return models.Activity{Ratings: ratings, Watchlist: watchlist}, nil
}

func (m *IMDb) parse(ctx context.Context, name, dateCol string, rated bool) ([]models.LocalRecord, error) {
	rows, skipped, err := readCSV(filepath.Join(m.dir, name), imdbColTitle)
	if err != nil {
		return nil, err
	}
	c := &collector{ctx: ctx, file: name, skipped: skipped}

	var out []models.LocalRecord
	for _, r := range rows {
		f := models.RecordFields{
			Category: titleCategory(r.get(imdbColType)),
			Title:    r.get(imdbColTitle),
			Year:     r.year(imdbColYear),
			NativeID: r.get(imdbColConst),
			AddedAt:  r.date(dateCol),
		}
		if rated {
			rating, err := strconv.Atoi(r.get(imdbColRating))
			if err != nil {
				c.skipped++
				continue
			}
			f.Rating = rating
		}
		if f.Category == models.CategoryEpisode {
			series, episode := splitEpisodeTitle(f.Title)
			f.Title = episode
			f.Episode = &models.EpisodeRef{SeriesTitle: series}
		}
		c.add(&out, f)
	}
	c.done(len(out))
	return out, nil
}

// titleCategory maps the Title Type column. Both the display form
// ("TV Series") and the dataset form ("tvSeries") occur in exports.
func titleCategory(typ string) models.Category {
	switch strings.ToLower(strings.ReplaceAll(typ, " ", "")) {
	case "tvseries", "tvminiseries":
		return models.CategoryShow
	case "tvepisode":
		return models.CategoryEpisode
	default:
		return models.CategoryMovie
	}
}

// splitEpisodeTitle splits "Series: Episode". Without a separator both parts
// are the full title.
func splitEpisodeTitle(title string) (series, episode string) {
	s, e, ok := strings.Cut(title, ": ")
	if !ok || strings.TrimSpace(s) == "" || strings.TrimSpace(e) == "" {
		return title, title
	}
	return s, e
}
