// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package legacy

import "strings"

// Legacy table names in a standard WordPress dump.
const (
	TablePosts             = "wp_posts"
	TablePostMeta          = "wp_postmeta"
	TableUsers             = "wp_users"
	TableTerms             = "wp_terms"
	TableTermTaxonomy      = "wp_term_taxonomy"
	TableTermRelationships = "wp_term_relationships"
)

// TableNames groups the six legacy tables for one dump's prefix.
type TableNames struct {
	Posts             string
	PostMeta          string
	Users             string
	Terms             string
	TermTaxonomy      string
	TermRelationships string
}

// TablesFor derives table names from the dump's table prefix. A stock
// install uses "wp_"; multisite and hardened installs vary it.
func TablesFor(prefix string) TableNames {
	if prefix == "" {
		prefix = "wp_"
	}
	return TableNames{
		Posts:             prefix + "posts",
		PostMeta:          prefix + "postmeta",
		Users:             prefix + "users",
		Terms:             prefix + "terms",
		TermTaxonomy:      prefix + "term_taxonomy",
		TermRelationships: prefix + "term_relationships",
	}
}

// Well-known column schemas, used when a dump's INSERT statements carry no
// explicit column list (mysqldump without --complete-insert). Order matches
// the stock WordPress schema.
var (
	PostColumns = []string{
		"ID", "post_author", "post_date", "post_date_gmt", "post_content",
		"post_title", "post_excerpt", "post_status", "comment_status",
		"ping_status", "post_password", "post_name", "to_ping", "pinged",
		"post_modified", "post_modified_gmt", "post_content_filtered",
		"post_parent", "guid", "menu_order", "post_type", "post_mime_type",
		"comment_count",
	}

	PostMetaColumns = []string{"meta_id", "post_id", "meta_key", "meta_value"}

	UserColumns = []string{
		"ID", "user_login", "user_pass", "user_nicename", "user_email",
		"user_url", "user_registered", "user_activation_key", "user_status",
		"display_name",
	}

	TermColumns = []string{"term_id", "name", "slug", "term_group"}

	TermTaxonomyColumns = []string{
		"term_taxonomy_id", "term_id", "taxonomy", "description", "parent",
		"count",
	}

	TermRelationshipColumns = []string{"object_id", "term_taxonomy_id", "term_order"}
)

// DefaultColumns returns the well-known schema for a legacy table, or nil
// when the table is not one Inkporter understands. Matching is by suffix so
// any table prefix works.
func DefaultColumns(table string) []string {
	switch {
	case strings.HasSuffix(table, "postmeta"):
		return PostMetaColumns
	case strings.HasSuffix(table, "posts"):
		return PostColumns
	case strings.HasSuffix(table, "users"):
		return UserColumns
	case strings.HasSuffix(table, "term_taxonomy"):
		return TermTaxonomyColumns
	case strings.HasSuffix(table, "term_relationships"):
		return TermRelationshipColumns
	case strings.HasSuffix(table, "terms"):
		return TermColumns
	default:
		return nil
	}
}
