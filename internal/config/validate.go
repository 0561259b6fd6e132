// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/tomtom215/reelsync/internal/validation"
)

// Validate checks field constraints and the rules that span fields.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}
	if err := validateBaseURL(c.Trakt.BaseURL); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	for _, site := range Sites {
		if _, err := c.SiteScope(site); err != nil {
			return fmt.Errorf("%s: %w", site, err)
		}
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && !c.History.InMemory && c.History.Path == "" {
		return errors.New("history.path is required unless history.in_memory is set")
	}
	return nil
}

// validateBaseURL requires an http(s) URL without path or query.
func validateBaseURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("trakt.base_url failed to parse: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("trakt.base_url scheme must be http or https, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("trakt.base_url host is required")
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("trakt.base_url should be base URL only, remove path: %s", u.Path)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("trakt.base_url should not contain query parameters, remove: ?%s", u.RawQuery)
	}
	return nil
}
