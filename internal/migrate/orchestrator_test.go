// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package migrate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/inkporter/internal/destination"
	"github.com/tomtom215/inkporter/internal/legacy"
	"github.com/tomtom215/inkporter/internal/media"
)

// fakeDownloader serves canned bytes and counts fetches.
type fakeDownloader struct {
	fetches int
	fail    map[string]error
}

func (f *fakeDownloader) Fetch(_ context.Context, url string) ([]byte, error) {
	if err, ok := f.fail[url]; ok {
		return nil, err
	}
	f.fetches++
	return []byte("bytes:" + url), nil
}

type harness struct {
	orch   *Orchestrator
	store  *destination.MemoryStore
	assets *destination.MemoryAssets
	dl     *fakeDownloader
}

func newHarness(opts Options, mediaCfg media.Config) *harness {
	if opts.Delay == 0 {
		opts.Delay = time.Millisecond
	}
	store := destination.NewMemoryStore()
	assets := destination.NewMemoryAssets()
	dl := &fakeDownloader{fail: make(map[string]error)}
	m := media.NewMigrator(mediaCfg, dl, assets)
	return &harness{
		orch:   New(store, m, opts),
		store:  store,
		assets: assets,
		dl:     dl,
	}
}

func post(id int64, title string) legacy.Post {
	now := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	return legacy.Post{
		ID:      id,
		Title:   title,
		Content: "<p>hello</p>",
		Status:  legacy.StatusPublished,
		Type:    "post",
		Date:    &now,
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"My Post", "my-post"},
		{"  Hello,   World!  ", "hello-world"},
		{"Go 1.24 Released", "go-1-24-released"},
		{"Ünïcode Titles", "ünïcode-titles"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRunMigratesRecords(t *testing.T) {
	h := newHarness(Options{}, media.Config{})
	posts := []legacy.Post{post(1, "First"), post(2, "Second")}
	users := []legacy.User{{ID: 7, Slug: "alice"}}
	posts[0].AuthorID = 7

	report, err := h.orch.Run(context.Background(), posts, users)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Migrated != 2 || report.Failed != 0 {
		t.Fatalf("migrated = %d, failed = %d, want 2 and 0", report.Migrated, report.Failed)
	}
	if h.store.Writes != 2 {
		t.Errorf("store writes = %d, want 2", h.store.Writes)
	}

	doc, err := h.store.GetDocument(context.Background(), destination.DocumentID(1))
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if doc == nil {
		t.Fatal("document post-1 not written")
	}
	if doc.Slug != "first" {
		t.Errorf("slug = %q, want %q", doc.Slug, "first")
	}
	if doc.AuthorSlug != "alice" {
		t.Errorf("author slug = %q, want %q", doc.AuthorSlug, "alice")
	}
	if doc.LegacyID != 1 {
		t.Errorf("legacy id = %d, want 1", doc.LegacyID)
	}
}

func TestRunSlugCollision(t *testing.T) {
	h := newHarness(Options{}, media.Config{})
	posts := []legacy.Post{post(1, "My Post"), post(2, "My Post")}

	if _, err := h.orch.Run(context.Background(), posts, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	a, _ := h.store.GetDocument(context.Background(), destination.DocumentID(1))
	b, _ := h.store.GetDocument(context.Background(), destination.DocumentID(2))
	if a == nil || b == nil {
		t.Fatal("both documents should be written")
	}
	if a.Slug != "my-post" {
		t.Errorf("first slug = %q, want %q", a.Slug, "my-post")
	}
	if b.Slug != "my-post-1" {
		t.Errorf("second slug = %q, want %q", b.Slug, "my-post-1")
	}
}

func TestRunSkipExisting(t *testing.T) {
	h := newHarness(Options{SkipExisting: true}, media.Config{})
	posts := []legacy.Post{post(1, "First"), post(2, "Second")}

	if _, err := h.orch.Run(context.Background(), posts, nil); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	writesAfterFirst := h.store.Writes

	// Second run against the same store must be a no-op.
	m := media.NewMigrator(media.Config{}, h.dl, h.assets)
	orch2 := New(h.store, m, Options{SkipExisting: true, Delay: time.Millisecond})

	report, err := orch2.Run(context.Background(), posts, nil)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if report.Skipped != 2 || report.Migrated != 0 {
		t.Errorf("skipped = %d, migrated = %d, want 2 and 0", report.Skipped, report.Migrated)
	}
	if h.store.Writes != writesAfterFirst {
		t.Errorf("second run wrote %d documents, want 0", h.store.Writes-writesAfterFirst)
	}
	if h.assets.Uploads != 0 {
		t.Errorf("second run uploaded %d assets, want 0", h.assets.Uploads)
	}
}

func TestRunForceRemigrates(t *testing.T) {
	h := newHarness(Options{SkipExisting: true, Force: true}, media.Config{})
	posts := []legacy.Post{post(1, "First")}

	if _, err := h.orch.Run(context.Background(), posts, nil); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	m := media.NewMigrator(media.Config{}, h.dl, h.assets)
	orch2 := New(h.store, m, Options{SkipExisting: true, Force: true, Delay: time.Millisecond})
	report, err := orch2.Run(context.Background(), posts, nil)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if report.Migrated != 1 || report.Skipped != 0 {
		t.Errorf("migrated = %d, skipped = %d, want 1 and 0", report.Migrated, report.Skipped)
	}

	// Force rerun keeps the original slug rather than suffixing it.
	doc, _ := h.store.GetDocument(context.Background(), destination.DocumentID(1))
	if doc.Slug != "first" {
		t.Errorf("slug after force rerun = %q, want %q", doc.Slug, "first")
	}
}

func TestRunDryRun(t *testing.T) {
	h := newHarness(Options{DryRun: true}, media.Config{})
	posts := []legacy.Post{post(1, "First")}
	posts[0].Featured = &legacy.ImageReference{SourceURL: "http://old/a.png"}
	posts[0].Content = `<p><img src="http://old/b.png"></p>`

	report, err := h.orch.Run(context.Background(), posts, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.DryRun {
		t.Error("report.DryRun = false, want true")
	}
	if report.Migrated != 1 {
		t.Errorf("migrated = %d, want 1", report.Migrated)
	}
	if h.store.Writes != 0 {
		t.Errorf("dry run wrote %d documents, want 0", h.store.Writes)
	}
	if h.assets.Uploads != 0 || h.dl.fetches != 0 {
		t.Errorf("dry run touched media: uploads = %d, fetches = %d", h.assets.Uploads, h.dl.fetches)
	}
}

func TestRunFailureDoesNotAbort(t *testing.T) {
	h := newHarness(Options{}, media.Config{})
	h.dl.fail["http://old/broken.png"] = errors.New("connection refused")

	posts := []legacy.Post{post(1, "First"), post(2, "Second")}
	posts[0].Featured = &legacy.ImageReference{SourceURL: "http://old/broken.png"}

	report, err := h.orch.Run(context.Background(), posts, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Failed != 1 || report.Migrated != 1 {
		t.Fatalf("failed = %d, migrated = %d, want 1 and 1", report.Failed, report.Migrated)
	}
	if len(report.Failures) != 1 || report.Failures[0].LegacyID != 1 {
		t.Errorf("failures = %+v, want one entry for record 1", report.Failures)
	}

	// The failed record must not be half-written.
	if doc, _ := h.store.GetDocument(context.Background(), destination.DocumentID(1)); doc != nil {
		t.Error("failed record was persisted")
	}
	states := h.orch.States()
	if states[1].State != StateFailed {
		t.Errorf("record 1 state = %q, want %q", states[1].State, StateFailed)
	}
	if states[2].State != StatePersisted {
		t.Errorf("record 2 state = %q, want %q", states[2].State, StatePersisted)
	}
}

func TestRunUnreachableFeaturedStillMigrates(t *testing.T) {
	h := newHarness(Options{}, media.Config{
		UnreachablePrefixes: []string{"http://dead.example/"},
	})
	posts := []legacy.Post{post(1, "First")}
	posts[0].Featured = &legacy.ImageReference{SourceURL: "http://dead.example/a.png"}

	report, err := h.orch.Run(context.Background(), posts, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Migrated != 1 || report.Failed != 0 {
		t.Fatalf("migrated = %d, failed = %d, want 1 and 0", report.Migrated, report.Failed)
	}
	if report.UnreachableImages != 1 {
		t.Errorf("unreachable = %d, want 1", report.UnreachableImages)
	}
	doc, _ := h.store.GetDocument(context.Background(), destination.DocumentID(1))
	if doc.FeaturedRef != "" {
		t.Errorf("featured ref = %q, want empty", doc.FeaturedRef)
	}
}

func TestRunLimit(t *testing.T) {
	h := newHarness(Options{Limit: 1}, media.Config{})
	posts := []legacy.Post{post(1, "First"), post(2, "Second"), post(3, "Third")}

	report, err := h.orch.Run(context.Background(), posts, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Total != 1 || report.Migrated != 1 {
		t.Errorf("total = %d, migrated = %d, want 1 and 1", report.Total, report.Migrated)
	}
}

func TestRunRewritesBody(t *testing.T) {
	h := newHarness(Options{}, media.Config{})
	posts := []legacy.Post{post(1, "First")}
	posts[0].Content = `<p><img src="http://old/a.png"></p>`

	if _, err := h.orch.Run(context.Background(), posts, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	doc, _ := h.store.GetDocument(context.Background(), destination.DocumentID(1))
	if doc.Body == posts[0].Content {
		t.Error("body was not rewritten")
	}
	if h.assets.Uploads != 1 {
		t.Errorf("uploads = %d, want 1", h.assets.Uploads)
	}
}

func TestRunDelaysBetweenRecords(t *testing.T) {
	delay := 50 * time.Millisecond
	// The pacer accrues from construction, so the clock starts before it.
	start := time.Now()
	h := newHarness(Options{Delay: delay}, media.Config{})
	posts := []legacy.Post{post(1, "First"), post(2, "Second")}

	report, err := h.orch.Run(context.Background(), posts, nil)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Migrated != 2 {
		t.Fatalf("migrated = %d, want 2", report.Migrated)
	}
	// One inter-record pause between two records.
	if elapsed < delay {
		t.Errorf("elapsed = %v, want at least %v between records", elapsed, delay)
	}
}

func TestRunContextCancellation(t *testing.T) {
	h := newHarness(Options{Delay: time.Hour}, media.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	posts := []legacy.Post{post(1, "First"), post(2, "Second")}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	report, err := h.orch.Run(ctx, posts, nil)
	if err == nil {
		t.Fatal("Run() error = nil, want context error")
	}
	if report == nil {
		t.Fatal("report is nil, want partial report")
	}
	if report.Migrated != 1 {
		t.Errorf("migrated = %d, want 1 before cancellation", report.Migrated)
	}
}

func TestResolveSlug(t *testing.T) {
	ctx := context.Background()
	store := destination.NewMemoryStore()
	seed := func(id, slug string) {
		if err := store.CreateDocument(ctx, &destination.Document{ID: id, Slug: slug}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	seed("post-10", "taken")
	seed("post-11", "taken-1")

	t.Run("free slug is used as-is", func(t *testing.T) {
		got, err := resolveSlug(ctx, store, "free", "post-99")
		if err != nil {
			t.Fatalf("resolveSlug() error = %v", err)
		}
		if got != "free" {
			t.Errorf("slug = %q, want %q", got, "free")
		}
	})

	t.Run("collision appends next free suffix", func(t *testing.T) {
		got, err := resolveSlug(ctx, store, "taken", "post-99")
		if err != nil {
			t.Fatalf("resolveSlug() error = %v", err)
		}
		if got != "taken-2" {
			t.Errorf("slug = %q, want %q", got, "taken-2")
		}
	})

	t.Run("own document exempts its slug", func(t *testing.T) {
		got, err := resolveSlug(ctx, store, "taken", "post-10")
		if err != nil {
			t.Fatalf("resolveSlug() error = %v", err)
		}
		if got != "taken" {
			t.Errorf("slug = %q, want %q", got, "taken")
		}
	})
}
