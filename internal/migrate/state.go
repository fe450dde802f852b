// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

// Package migrate drives the migration of legacy records into the
// destination store: per-record state transitions, slug collision
// resolution, dry-run and skip-existing policies, pacing, and the final
// report.
package migrate

// State is a record's position in the migration pipeline.
//
// Pending -> Downloading -> Uploading -> Rewriting -> Persisted, with Failed
// reachable from any non-terminal state and Skipped reachable from Pending.
// There is no transition out of Failed within a run; a rerun starts the
// record at Pending again.
type State string

const (
	StatePending     State = "pending"
	StateDownloading State = "downloading"
	StateUploading   State = "uploading"
	StateRewriting   State = "rewriting"
	StatePersisted   State = "persisted"
	StateFailed      State = "failed"
	StateSkipped     State = "skipped"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StatePersisted || s == StateFailed || s == StateSkipped
}

// RecordState tracks one legacy record through the pipeline. The
// orchestrator is its sole mutator; it lives in process memory for the
// duration of one run.
type RecordState struct {
	LegacyID      int64
	DocumentID    string
	State         State
	LastError     string
	FeaturedAsset string
}

// transition advances the record, refusing moves out of a terminal state.
func (r *RecordState) transition(to State) {
	if r.State.Terminal() {
		return
	}
	r.State = to
}

// fail marks the record Failed with a reason.
func (r *RecordState) fail(reason string) {
	if r.State.Terminal() {
		return
	}
	r.State = StateFailed
	r.LastError = reason
}
