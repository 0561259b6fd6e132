// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// histogram reads the sample count and sum of one histogram child.
func histogram(t *testing.T, obs prometheus.Observer) (uint64, float64) {
	t.Helper()
	m, ok := obs.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T is not a metric", obs)
	}
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	h := out.GetHistogram()
	return h.GetSampleCount(), h.GetSampleSum()
}

// Label values are unique per test so the shared registry does not couple them.

func TestRecordRecords(t *testing.T) {
	RecordRecords("rating", "test-records", "accepted", 3)
	RecordRecords("rating", "test-records", "accepted", 0)
	RecordRecords("rating", "test-records", "accepted", -2)

	if got := testutil.ToFloat64(SyncRecordsTotal.WithLabelValues("rating", "test-records", "accepted")); got != 3 {
		t.Errorf("accepted records = %v, want 3", got)
	}
}

func TestRecordBatch(t *testing.T) {
	RecordBatch("watched", "test-batch", "transmitted", 20*time.Millisecond)
	RecordBatch("watched", "test-batch", "transmitted", 30*time.Millisecond)
	RecordBatch("watched", "test-batch", "failed", time.Second)

	if got := testutil.ToFloat64(SyncBatchesTotal.WithLabelValues("watched", "test-batch", "transmitted")); got != 2 {
		t.Errorf("transmitted batches = %v, want 2", got)
	}
	if got := testutil.ToFloat64(SyncBatchesTotal.WithLabelValues("watched", "test-batch", "failed")); got != 1 {
		t.Errorf("failed batches = %v, want 1", got)
	}

	count, sum := histogram(t, SyncBatchDuration.WithLabelValues("watched", "test-batch"))
	if count != 3 {
		t.Errorf("batch duration samples = %d, want 3", count)
	}
	if sum < 1.04 || sum > 1.06 {
		t.Errorf("batch duration sum = %v, want 1.05", sum)
	}
}

func TestRecordRemoteFetch(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantResult string
	}{
		{name: "success", wantResult: "success"},
		{name: "failure", err: errors.New("timeout"), wantResult: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := "test-fetch-" + tt.name
			RecordRemoteFetch("watchlist", cat, time.Millisecond, tt.err)
			if got := testutil.ToFloat64(RemoteFetchTotal.WithLabelValues("watchlist", cat, tt.wantResult)); got != 1 {
				t.Errorf("%s fetches = %v, want 1", tt.wantResult, got)
			}
		})
	}
}

func TestRecordTraktRequest(t *testing.T) {
	RecordTraktRequest("GET", "/test/trakt", 200, time.Millisecond)
	RecordTraktRequest("GET", "/test/trakt", 0, time.Millisecond)

	if got := testutil.ToFloat64(TraktRequestsTotal.WithLabelValues("GET", "/test/trakt", "200")); got != 1 {
		t.Errorf("200 requests = %v", got)
	}
	if got := testutil.ToFloat64(TraktRequestsTotal.WithLabelValues("GET", "/test/trakt", "error")); got != 1 {
		t.Errorf("transport errors = %v", got)
	}
}

func TestRecordRunAndAPIRequest(t *testing.T) {
	RecordRun("test-site", "completed", time.Second)
	if got := testutil.ToFloat64(SyncRunsTotal.WithLabelValues("test-site", "completed")); got != 1 {
		t.Errorf("runs = %v", got)
	}

	RecordAPIRequest("POST", "/test/api", "202", time.Millisecond)
	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/test/api", "202")); got != 1 {
		t.Errorf("api requests = %v", got)
	}
	if n := testutil.CollectAndCount(APIRequestDuration); n < 1 {
		t.Errorf("api duration series = %d", n)
	}
}
