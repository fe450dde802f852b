// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package migrate

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
)

// maxFailureSample bounds how many failures the printed summary lists.
const maxFailureSample = 10

// Failure is one record-level failure for the report.
type Failure struct {
	LegacyID int64  `json:"legacy_id"`
	Reason   string `json:"reason"`
}

// Report is the output contract of a run: aggregate counts, a bounded
// failure sample, and every silent fallback the pipeline counted along the
// way (dropped dump rows, nulled dates, skipped taxonomies).
type Report struct {
	RunID    string    `json:"run_id"`
	DryRun   bool      `json:"dry_run"`
	Total    int       `json:"total"`
	Migrated int       `json:"migrated"`
	Skipped  int       `json:"skipped"`
	Failed   int       `json:"failed"`
	Failures []Failure `json:"failures,omitempty"`

	// Parse and mapping fallbacks, surfaced so tolerant parsing never
	// swallows anything silently.
	DroppedRows       int `json:"dropped_rows"`
	NullDates         int `json:"null_dates"`
	OrphanTaxonomies  int `json:"orphan_taxonomies"`
	UnreachableImages int `json:"unreachable_images"`
	DroppedTrash      int `json:"dropped_trash"`
	DroppedByType     int `json:"dropped_by_type"`
	UnknownStatuses   int `json:"unknown_statuses"`
	ShortRows         int `json:"short_rows"`
	UnknownTaxonomies int `json:"unknown_taxonomies"`

	// Media activity.
	Downloads int `json:"downloads"`
	Uploads   int `json:"uploads"`
	CacheHits int `json:"cache_hits"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// RecordsPerSecond returns the processing rate.
func (r *Report) RecordsPerSecond() float64 {
	secs := r.Duration().Seconds()
	if secs == 0 {
		return 0
	}
	return float64(r.Total) / secs
}

// JSON renders the report for machine consumption.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Print writes the human-readable summary. This always runs at the end of a
// run, successful or not.
func (r *Report) Print(w io.Writer) {
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "Migration complete%s in %s\n", mode, r.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "  total:    %d\n", r.Total)
	fmt.Fprintf(w, "  migrated: %d\n", r.Migrated)
	fmt.Fprintf(w, "  skipped:  %d\n", r.Skipped)
	fmt.Fprintf(w, "  failed:   %d\n", r.Failed)
	fmt.Fprintf(w, "  media:    %d downloads, %d uploads, %d cache hits\n",
		r.Downloads, r.Uploads, r.CacheHits)

	if r.DroppedRows > 0 || r.NullDates > 0 || r.OrphanTaxonomies > 0 || r.UnreachableImages > 0 {
		fmt.Fprintf(w, "  fallbacks: %d dump rows dropped, %d dates nulled, %d orphan taxonomies, %d unreachable images\n",
			r.DroppedRows, r.NullDates, r.OrphanTaxonomies, r.UnreachableImages)
	}
	if r.DroppedTrash > 0 || r.DroppedByType > 0 || r.UnknownStatuses > 0 || r.ShortRows > 0 || r.UnknownTaxonomies > 0 {
		fmt.Fprintf(w, "  mapping:   %d trashed dropped, %d non-content rows dropped, %d unknown statuses, %d short rows, %d unknown taxonomies\n",
			r.DroppedTrash, r.DroppedByType, r.UnknownStatuses, r.ShortRows, r.UnknownTaxonomies)
	}

	if len(r.Failures) > 0 {
		n := len(r.Failures)
		if n > maxFailureSample {
			n = maxFailureSample
		}
		fmt.Fprintf(w, "  first %d failures:\n", n)
		for _, f := range r.Failures[:n] {
			fmt.Fprintf(w, "    legacy %d: %s\n", f.LegacyID, f.Reason)
		}
	}
}
