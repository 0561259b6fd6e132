// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package sources

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/models"
)

var (
	// ErrUnknownSite is returned for a site name no source handles.
	ErrUnknownSite = errors.New("unknown site")
	// ErrSiteDisabled is returned when the site is not enabled in config.
	ErrSiteDisabled = errors.New("site disabled")
)

// Source loads the activity of one site.
type Source interface {
	Site() string
	Load(ctx context.Context) (models.Activity, error)
}

// New returns the source for site configured by cfg.
func New(site string, cfg *config.Config) (Source, error) {
	switch strings.ToLower(site) {
	case config.SiteLetterboxd:
		if !cfg.Letterboxd.Enabled {
			return nil, fmt.Errorf("%w: %s", ErrSiteDisabled, site)
		}
		return NewLetterboxd(cfg.Letterboxd), nil
	case config.SiteIMDb:
		if !cfg.IMDb.Enabled {
			return nil, fmt.Errorf("%w: %s", ErrSiteDisabled, site)
		}
		return NewIMDb(cfg.IMDb), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSite, site)
	}
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("export directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("export directory %s is not a directory", dir)
	}
	return nil
}

// collector builds records and counts the rows it had to drop.
type collector struct {
	ctx     context.Context
	file    string
	skipped int
}

func (c *collector) add(dst *[]models.LocalRecord, f models.RecordFields) {
	rec, err := models.NewLocalRecord(f)
	if err != nil {
		c.skipped++
		logging.Ctx(c.ctx).Debug().Err(err).Str("file", c.file).Msg("Skipping export row")
		return
	}
	*dst = append(*dst, rec)
}

func (c *collector) done(n int) {
	ev := logging.Ctx(c.ctx).Info()
	if c.skipped > 0 {
		ev = logging.Ctx(c.ctx).Warn()
	}
	ev.Str("file", c.file).Int("records", n).Int("skipped", c.skipped).Msg("Parsed export file")
}
