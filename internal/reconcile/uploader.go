// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/metrics"
	"github.com/tomtom215/reelsync/internal/models"
)

// DefaultBatchSize is the page size used when none is configured.
const DefaultBatchSize = 250

var errNoResponse = errors.New("no response from remote")

// Paginate splits items into pages of size. Every page but the last holds
// exactly size items. Empty input yields no pages.
func Paginate(intent models.Intent, cat models.Category, items []models.SyncItem, size int) []models.SyncBatch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	total := PageCount(len(items), size)
	batches := make([]models.SyncBatch, 0, total)
	for chunk := range slices.Chunk(items, size) {
		batches = append(batches, models.SyncBatch{
			Intent:   intent,
			Category: cat,
			Index:    len(batches) + 1,
			Total:    total,
			Items:    chunk,
		})
	}
	return batches
}

// PageCount returns how many pages n items make at size.
func PageCount(n, size int) int {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return (n + size - 1) / size
}

// Uploader submits pages sequentially.
type Uploader struct {
	writer       RemoteWriter
	batchSize    int
	failurePause time.Duration
	rejectPause  time.Duration
	sink         StatusSink
}

// NewUploader creates an uploader. Non-positive batchSize means DefaultBatchSize.
func NewUploader(writer RemoteWriter, batchSize int, failurePause, rejectPause time.Duration, sink StatusSink) *Uploader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if sink == nil {
		sink = LogSink{}
	}
	return &Uploader{
		writer:       writer,
		batchSize:    batchSize,
		failurePause: failurePause,
		rejectPause:  rejectPause,
		sink:         sink,
	}
}

// Stream submits items page by page and yields one outcome per page. Pages
// are only submitted as the sequence is consumed. The gate is checked before
// and after every page; once cancelled the sequence ends.
func (u *Uploader) Stream(gate *Gate, intent models.Intent, cat models.Category, items []models.SyncItem) iter.Seq[models.SyncOutcome] {
	return func(yield func(models.SyncOutcome) bool) {
		batches := Paginate(intent, cat, items, u.batchSize)
		for _, b := range batches {
			if gate.Cancelled() {
				return
			}
			out := u.send(gate.CallContext(), b)
			if !yield(out) {
				return
			}
			if gate.Cancelled() {
				return
			}
			if b.Index == b.Total {
				return
			}
			var pause time.Duration
			switch out.Kind {
			case models.OutcomeFailed:
				pause = u.failurePause
			case models.OutcomePartiallyRejected:
				pause = u.rejectPause
			}
			if pause > 0 && !gate.Pause(pause) {
				return
			}
		}
	}
}

// Upload runs Stream to completion and collects the outcomes.
func (u *Uploader) Upload(gate *Gate, intent models.Intent, cat models.Category, items []models.SyncItem) []models.SyncOutcome {
	return slices.Collect(u.Stream(gate, intent, cat, items))
}

func (u *Uploader) send(ctx context.Context, b models.SyncBatch) models.SyncOutcome {
	start := time.Now()
	resp, err := submit(ctx, u.writer, b.Intent, b.Category, b.Items)
	if err == nil && resp == nil {
		err = errNoResponse
	}

	var out models.SyncOutcome
	switch {
	case err != nil:
		out = models.Failed(b, err)
	case resp.NotFound.For(b.Category) > 0:
		out = models.PartiallyRejected(b, min(resp.NotFound.For(b.Category), len(b.Items)))
	default:
		out = models.Transmitted(b)
	}
	out.Elapsed = time.Since(start)

	intent, cat := string(b.Intent), string(b.Category)
	metrics.RecordBatch(intent, cat, out.Kind.String(), out.Elapsed)
	metrics.RecordRecords(intent, cat, "accepted", out.Accepted())
	metrics.RecordRecords(intent, cat, "not_found", out.NotFound)
	if out.Kind == models.OutcomeFailed {
		metrics.RecordRecords(intent, cat, "unsent", out.Size)
	}

	log := logging.Ctx(ctx)
	page := fmt.Sprintf("%s page %d/%d to %s", b.Category.Plural(), b.Index, b.Total, label(b.Intent))
	switch out.Kind {
	case models.OutcomeFailed:
		log.Error().Err(err).Str("intent", intent).Str("category", cat).
			Int("page", b.Index).Int("pages", b.Total).Int("size", out.Size).
			Msg("Batch submission failed")
		u.sink.Notify(ctx, SeverityError, fmt.Sprintf("Failed to send %s: %v", page, err))
	case models.OutcomePartiallyRejected:
		log.Warn().Str("intent", intent).Str("category", cat).
			Int("page", b.Index).Int("pages", b.Total).Int("not_found", out.NotFound).
			Msg("Batch partially rejected")
		u.sink.Notify(ctx, SeverityWarning, fmt.Sprintf("Sent %s, %d of %d not found remotely", page, out.NotFound, out.Size))
	default:
		log.Debug().Str("intent", intent).Str("category", cat).
			Int("page", b.Index).Int("pages", b.Total).Int("size", out.Size).
			Dur("elapsed", out.Elapsed).
			Msg("Batch transmitted")
		u.sink.Notify(ctx, SeverityInfo, fmt.Sprintf("Sent %s (%d items)", page, out.Size))
	}
	return out
}
