// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package migrate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/inkporter/internal/destination"
	"github.com/tomtom215/inkporter/internal/legacy"
	"github.com/tomtom215/inkporter/internal/logging"
	"github.com/tomtom215/inkporter/internal/media"
)

// MediaMigrator is the slice of the media package the orchestrator drives.
type MediaMigrator interface {
	MigrateReference(ctx context.Context, sourceURL, recordRef string) (string, error)
	RewriteHTML(ctx context.Context, body, recordRef string) (string, media.RewriteStats)
	FindReferences(body string) []string
	Stats() media.Stats
}

// Options are the run policies, set from CLI flags.
type Options struct {
	// DryRun executes the full transform pipeline but suppresses every
	// destination write; intended actions are logged instead.
	DryRun bool

	// SkipExisting checks the destination for each record's document before
	// processing and skips records that already exist.
	SkipExisting bool

	// Force re-migrates records even when their destination document or
	// migration marker already exists.
	Force bool

	// FeaturedOnly migrates featured images only, leaving bodies untouched.
	FeaturedOnly bool

	// ContentOnly rewrites bodies only, ignoring featured images.
	ContentOnly bool

	// Limit caps how many records are processed; 0 means all.
	Limit int

	// Delay is the pause between records, respecting destination rate
	// limits. Default 250ms.
	Delay time.Duration
}

// Orchestrator drives legacy records through the migration state machine,
// one record at a time. Destination writes happen in record-sized units, so
// an interrupted run leaves every record either fully migrated or untouched.
type Orchestrator struct {
	store   destination.DocumentStore
	media   MediaMigrator
	opts    Options
	limiter *rate.Limiter
	states  map[int64]*RecordState
}

// New creates an orchestrator. The destination clients arrive
// already-initialized; the orchestrator holds no global state.
func New(store destination.DocumentStore, m MediaMigrator, opts Options) *Orchestrator {
	if opts.Delay <= 0 {
		opts.Delay = 250 * time.Millisecond
	}
	limiter := rate.NewLimiter(rate.Every(opts.Delay), 1)
	// The bucket starts full, which would let the first inter-record wait
	// pass immediately. Drain it so every wait actually paces.
	limiter.Allow()
	return &Orchestrator{
		store:   store,
		media:   m,
		opts:    opts,
		limiter: limiter,
		states:  make(map[int64]*RecordState),
	}
}

// States returns a snapshot of per-record migration state.
func (o *Orchestrator) States() map[int64]RecordState {
	out := make(map[int64]RecordState, len(o.states))
	for id, st := range o.states {
		out[id] = *st
	}
	return out
}

// Run processes every post sequentially and returns the run report. Per-
// record failures are recorded and never abort the run; the only returned
// error is context cancellation.
func (o *Orchestrator) Run(ctx context.Context, posts []legacy.Post, users []legacy.User) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		DryRun:    o.opts.DryRun,
		StartTime: time.Now(),
	}

	authorSlugs := make(map[int64]string, len(users))
	for _, u := range users {
		authorSlugs[u.ID] = u.Slug
	}

	if o.opts.Limit > 0 && len(posts) > o.opts.Limit {
		posts = posts[:o.opts.Limit]
	}
	report.Total = len(posts)

	logging.Info().
		Str("run_id", report.RunID).
		Int("records", len(posts)).
		Bool("dry_run", o.opts.DryRun).
		Bool("skip_existing", o.opts.SkipExisting).
		Msg("Starting migration run")

	for i, post := range posts {
		if i > 0 {
			// Blocking pause between records, per destination rate limits.
			if err := o.limiter.Wait(ctx); err != nil {
				o.finish(report)
				return report, err
			}
		}
		o.processRecord(ctx, post, authorSlugs[post.AuthorID], report)
	}

	o.finish(report)
	return report, nil
}

// finish folds media stats into the report and stamps the end time.
func (o *Orchestrator) finish(report *Report) {
	stats := o.media.Stats()
	report.Downloads = stats.Downloads
	report.Uploads = stats.Uploads
	report.CacheHits = stats.CacheHits
	report.UnreachableImages = stats.Unreachable
	report.EndTime = time.Now()

	logging.Info().
		Str("run_id", report.RunID).
		Int("migrated", report.Migrated).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Dur("duration", report.Duration()).
		Msg("Migration run finished")
}

// processRecord moves one post through Pending to a terminal state.
func (o *Orchestrator) processRecord(ctx context.Context, post legacy.Post, authorSlug string, report *Report) {
	st := &RecordState{
		LegacyID:   post.ID,
		DocumentID: destination.DocumentID(post.ID),
		State:      StatePending,
	}
	o.states[post.ID] = st

	if o.opts.SkipExisting && !o.opts.Force {
		exists, err := o.store.DocumentExists(ctx, st.DocumentID)
		if err != nil {
			o.recordFailure(st, report, "existence check: "+err.Error())
			return
		}
		if exists {
			st.transition(StateSkipped)
			report.Skipped++
			logging.Debug().Int64("legacy_id", post.ID).Msg("Document exists, skipping")
			return
		}
	}

	doc := &destination.Document{
		ID:          st.DocumentID,
		Title:       post.Title,
		Excerpt:     post.Excerpt,
		Status:      string(post.Status),
		Kind:        post.Type,
		AuthorSlug:  authorSlug,
		PublishedAt: post.Date,
		UpdatedAt:   post.Modified,
		LegacyID:    post.ID,
	}
	for _, term := range post.Terms {
		if term.IsCategory() {
			doc.Categories = append(doc.Categories, term.Slug)
		} else {
			doc.Tags = append(doc.Tags, term.Slug)
		}
	}

	if !o.migrateFeatured(ctx, post, st, doc, report) {
		return
	}

	body, ok := o.rewriteBody(ctx, post, st, report)
	if !ok {
		return
	}
	doc.Body = body

	base := post.Slug
	if base == "" {
		base = Slugify(post.Title)
	}
	slug, err := resolveSlug(ctx, o.store, base, st.DocumentID)
	if err != nil {
		o.recordFailure(st, report, "slug resolution: "+err.Error())
		return
	}
	doc.Slug = slug

	if o.opts.DryRun {
		logging.Info().
			Int64("legacy_id", post.ID).
			Str("document_id", doc.ID).
			Str("slug", doc.Slug).
			Msg("Dry run: would write document")
		st.transition(StatePersisted)
		report.Migrated++
		return
	}

	if err := o.store.CreateDocument(ctx, doc); err != nil {
		o.recordFailure(st, report, "write: "+err.Error())
		return
	}
	st.transition(StatePersisted)
	report.Migrated++
	logging.Info().
		Int64("legacy_id", post.ID).
		Str("slug", doc.Slug).
		Msg("Record migrated")
}

// migrateFeatured resolves the featured image, if any. Returns false when
// the record failed and must not proceed.
func (o *Orchestrator) migrateFeatured(ctx context.Context, post legacy.Post, st *RecordState, doc *destination.Document, report *Report) bool {
	if post.Featured == nil || o.opts.ContentOnly {
		return true
	}

	st.transition(StateDownloading)
	if o.opts.DryRun {
		logging.Info().
			Int64("legacy_id", post.ID).
			Str("source", post.Featured.SourceURL).
			Msg("Dry run: would migrate featured image")
		return true
	}

	assetID, err := o.media.MigrateReference(ctx, post.Featured.SourceURL, st.DocumentID)
	if err != nil {
		var me *media.MigrateError
		if errors.As(err, &me) && me.Reason == media.ReasonUnreachableSource {
			// Known-dead source: the featured image is dropped, the record
			// itself still migrates.
			logging.Warn().
				Int64("legacy_id", post.ID).
				Str("source", post.Featured.SourceURL).
				Str("reason", string(me.Reason)).
				Msg("Featured image skipped")
			return true
		}
		o.recordFailure(st, report, "featured: "+err.Error())
		return false
	}

	st.transition(StateUploading)
	st.FeaturedAsset = assetID
	doc.FeaturedRef = assetID
	return true
}

// rewriteBody migrates embedded images and rewrites the HTML. Returns the
// body to persist and false when the record failed.
func (o *Orchestrator) rewriteBody(ctx context.Context, post legacy.Post, st *RecordState, report *Report) (string, bool) {
	if o.opts.FeaturedOnly {
		return post.Content, true
	}

	st.transition(StateRewriting)
	if o.opts.DryRun {
		refs := o.media.FindReferences(post.Content)
		logging.Info().
			Int64("legacy_id", post.ID).
			Int("images", len(refs)).
			Msg("Dry run: would migrate embedded images")
		return post.Content, true
	}

	body, stats := o.media.RewriteHTML(ctx, post.Content, st.DocumentID)
	for _, f := range stats.Failed {
		if f.Reason == media.ReasonUnreachableSource {
			continue
		}
		// A hard media failure leaves the record Failed so the next run
		// retries it from Pending.
		o.recordFailure(st, report, "rewrite: "+f.Error())
		return "", false
	}
	return body, true
}

// recordFailure marks the record Failed and folds it into the report.
func (o *Orchestrator) recordFailure(st *RecordState, report *Report, reason string) {
	st.fail(reason)
	report.Failed++
	report.Failures = append(report.Failures, Failure{LegacyID: st.LegacyID, Reason: reason})
	logging.Error().
		Int64("legacy_id", st.LegacyID).
		Str("reason", reason).
		Msg("Record failed")
}
