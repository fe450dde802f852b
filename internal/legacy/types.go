// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

// Package legacy projects tokenized dump rows into typed records from the
// legacy WordPress database: posts, users and terms. Records are immutable
// once produced; transformations return new values rather than mutating in
// place.
package legacy

import "time"

// Status is the normalized publication status of a migrated post.
type Status string

const (
	StatusPublished Status = "published"
	StatusScheduled Status = "scheduled"
	StatusDraft     Status = "draft"
)

// ImageReference is a source image discovered on a record. The cache key for
// deduplication is the full SourceURL including any query string.
type ImageReference struct {
	SourceURL string
}

// Post is a typed projection of a wp_posts row plus joined relations.
type Post struct {
	ID       int64
	AuthorID int64
	Title    string
	Slug     string // legacy post_name, used as the slug candidate
	Content  string
	Excerpt  string
	Status   Status
	Type     string // "post" or "page"
	Date     *time.Time
	Modified *time.Time
	GUID     string
	Featured *ImageReference
	Terms    []Term
}

// User is a typed projection of a wp_users row.
type User struct {
	ID          int64
	Login       string
	Slug        string // user_nicename
	Email       string
	URL         string
	DisplayName string
	Registered  *time.Time
}

// Term is a category or tag, the join of a wp_terms row with its
// wp_term_taxonomy row on the shared term identifier.
type Term struct {
	ID          int64
	Name        string
	Slug        string
	Taxonomy    string // "category" or "post_tag"
	Description string
	Parent      int64
	Count       int64
}

// IsCategory reports whether the term is a category (vs a tag).
func (t Term) IsCategory() bool { return t.Taxonomy == "category" }
