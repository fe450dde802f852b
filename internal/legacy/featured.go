// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package legacy

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/inkporter/internal/sqldump"
)

// featuredObject mirrors the dynamic shapes the legacy API emits for a
// featured image: a bare URL string, {"url": ...}, or
// {"original": {"url": ...}}.
type featuredObject struct {
	URL      string          `json:"url"`
	Original *featuredObject `json:"original"`
}

// ResolveFeaturedImage collapses the legacy featured-image field, whatever
// its shape, into a single canonical ImageReference. Downstream components
// never branch on shape again. Returns nil for empty or unrecognized input.
func ResolveFeaturedImage(raw string) *ImageReference {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	// Bare URL, not JSON at all.
	if !strings.HasPrefix(raw, "{") && !strings.HasPrefix(raw, `"`) {
		return &ImageReference{SourceURL: raw}
	}

	// JSON string: "https://..."
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err != nil || s == "" {
			return nil
		}
		return &ImageReference{SourceURL: s}
	}

	var obj featuredObject
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil
	}
	if obj.Original != nil && obj.Original.URL != "" {
		return &ImageReference{SourceURL: obj.Original.URL}
	}
	if obj.URL != "" {
		return &ImageReference{SourceURL: obj.URL}
	}
	return nil
}

// AttachFeatured resolves each post's featured image from the dump side:
// wp_postmeta rows with meta_key "_thumbnail_id" point at an attachment row
// in wp_posts whose guid is the image URL. attachmentURLs is that id -> guid
// map; BuildAttachmentURLs derives it. Returns a new slice, source posts are
// untouched.
func (m *Mapper) AttachFeatured(posts []Post, metaCols []string, metaRows []sqldump.Row, attachmentURLs map[int64]string) []Post {
	thumbs := make(map[int64]int64)
	for _, row := range metaRows {
		fields := MapRow(metaCols, row)
		if fields["meta_key"].Str != "_thumbnail_id" {
			continue
		}
		postID := m.parseID(fields["post_id"])
		attachmentID := m.parseID(fields["meta_value"])
		if postID != 0 && attachmentID != 0 {
			thumbs[postID] = attachmentID
		}
	}

	out := make([]Post, len(posts))
	for i, p := range posts {
		if attachmentID, ok := thumbs[p.ID]; ok {
			if url, ok := attachmentURLs[attachmentID]; ok && url != "" {
				p.Featured = &ImageReference{SourceURL: url}
			}
		}
		out[i] = p
	}
	return out
}

// BuildAttachmentURLs extracts the id -> guid map for attachment rows in
// wp_posts. Attachments are dropped by Posts (their post_type is neither
// post nor page), so this reads the raw rows instead.
func (m *Mapper) BuildAttachmentURLs(columns []string, rows []sqldump.Row) map[int64]string {
	urls := make(map[int64]string)
	for _, row := range rows {
		fields := MapRow(columns, row)
		if fields["post_type"].Str != "attachment" {
			continue
		}
		if id := m.parseID(fields["ID"]); id != 0 {
			urls[id] = fields["guid"].Str
		}
	}
	return urls
}
