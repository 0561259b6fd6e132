// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package sources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// row is one CSV record keyed by lower-cased header name.
type row map[string]string

func (r row) get(name string) string {
	return strings.TrimSpace(r[strings.ToLower(name)])
}

// year returns nil for an empty or malformed year.
func (r row) year(name string) *int {
	y, err := strconv.Atoi(r.get(name))
	if err != nil || y <= 0 {
		return nil
	}
	return &y
}

func (r row) date(name string) time.Time {
	return parseDate(r.get(name))
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.ANSIC,
}

// parseDate returns the zero time when s matches no known layout.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// readCSV reads path into rows. Rows whose column count differs from the
// header, or whose required column is empty, are skipped and counted.
func readCSV(path, required string) (rows []row, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%s: csv header: %w", path, err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("%s: %w", path, err)
		}
		if len(fields) != len(cols) {
			skipped++
			continue
		}
		r := make(row, len(cols))
		for i, c := range cols {
			r[c] = fields[i]
		}
		if r.get(required) == "" {
			skipped++
			continue
		}
		rows = append(rows, r)
	}
	return rows, skipped, nil
}
