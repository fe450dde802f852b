// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package legacy

import (
	"testing"

	"github.com/tomtom215/inkporter/internal/sqldump"
)

func TestResolveFeaturedImage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string // empty means nil expected
	}{
		{"bare URL", "https://legacy.example.com/a.png", "https://legacy.example.com/a.png"},
		{"JSON string", `"https://legacy.example.com/b.png"`, "https://legacy.example.com/b.png"},
		{"url object", `{"url":"https://legacy.example.com/c.png"}`, "https://legacy.example.com/c.png"},
		{"nested original", `{"original":{"url":"https://legacy.example.com/d.png"}}`, "https://legacy.example.com/d.png"},
		{"original wins over url", `{"url":"https://x/thumb.png","original":{"url":"https://x/full.png"}}`, "https://x/full.png"},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
		{"empty object", `{}`, ""},
		{"broken JSON", `{"url":`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveFeaturedImage(tt.raw)
			if tt.want == "" {
				if got != nil {
					t.Errorf("ResolveFeaturedImage(%q) = %+v, want nil", tt.raw, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ResolveFeaturedImage(%q) = nil, want %q", tt.raw, tt.want)
			}
			if got.SourceURL != tt.want {
				t.Errorf("SourceURL = %q, want %q", got.SourceURL, tt.want)
			}
		})
	}
}

func TestAttachFeatured(t *testing.T) {
	m := NewMapper()

	attachmentRows := []sqldump.Row{
		postRow(map[string]sqldump.Value{
			"ID":        sqldump.String("50"),
			"post_type": sqldump.String("attachment"),
			"guid":      sqldump.String("https://legacy.example.com/uploads/photo.jpg"),
		}),
	}
	urls := m.BuildAttachmentURLs(PostColumns, attachmentRows)
	if urls[50] != "https://legacy.example.com/uploads/photo.jpg" {
		t.Fatalf("attachment URL = %q, want uploads/photo.jpg", urls[50])
	}

	posts := []Post{{ID: 5}, {ID: 6}}
	meta := []sqldump.Row{
		{sqldump.String("1"), sqldump.String("5"), sqldump.String("_thumbnail_id"), sqldump.String("50")},
		{sqldump.String("2"), sqldump.String("5"), sqldump.String("_edit_lock"), sqldump.String("x")},
	}

	attached := m.AttachFeatured(posts, PostMetaColumns, meta, urls)

	if attached[0].Featured == nil || attached[0].Featured.SourceURL != urls[50] {
		t.Errorf("post 5 featured = %+v, want %q", attached[0].Featured, urls[50])
	}
	if attached[1].Featured != nil {
		t.Errorf("post 6 featured = %+v, want nil", attached[1].Featured)
	}
	if posts[0].Featured != nil {
		t.Errorf("source post mutated: %+v", posts[0])
	}
}
