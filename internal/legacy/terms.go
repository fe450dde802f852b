// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package legacy

import (
	"github.com/tomtom215/inkporter/internal/logging"
	"github.com/tomtom215/inkporter/internal/sqldump"
)

// taxonomyEntry is the join key material from one wp_term_taxonomy row.
type taxonomyEntry struct {
	taxonomyID  int64
	termID      int64
	taxonomy    string
	description string
	parent      int64
	count       int64
}

// ResolveTerms inner-joins wp_terms rows (term_id -> name/slug) with
// wp_term_taxonomy rows (term_id -> taxonomy kind, parent, description,
// count) on the shared term identifier. A taxonomy row with no matching
// term is skipped and counted, not fatal. Only category and post_tag
// taxonomies are retained.
//
// The returned map is keyed by term_taxonomy_id, which is what
// wp_term_relationships references.
func (m *Mapper) ResolveTerms(termCols []string, termRows []sqldump.Row, taxCols []string, taxRows []sqldump.Row) map[int64]Term {
	names := make(map[int64]struct{ name, slug string }, len(termRows))
	for _, row := range termRows {
		fields := MapRow(termCols, row)
		id := m.parseID(fields["term_id"])
		if id == 0 {
			continue
		}
		names[id] = struct{ name, slug string }{
			name: fields["name"].Str,
			slug: fields["slug"].Str,
		}
	}

	terms := make(map[int64]Term, len(taxRows))
	for _, row := range taxRows {
		fields := MapRow(taxCols, row)
		entry := taxonomyEntry{
			taxonomyID:  m.parseID(fields["term_taxonomy_id"]),
			termID:      m.parseID(fields["term_id"]),
			taxonomy:    fields["taxonomy"].Str,
			description: fields["description"].Str,
			parent:      m.parseID(fields["parent"]),
			count:       m.parseID(fields["count"]),
		}

		if entry.taxonomy != "category" && entry.taxonomy != "post_tag" {
			m.stats.UnknownTaxonomies++
			continue
		}

		named, ok := names[entry.termID]
		if !ok {
			m.stats.OrphanTaxonomies++
			logging.Warn().
				Int64("term_id", entry.termID).
				Str("taxonomy", entry.taxonomy).
				Msg("Taxonomy row has no matching term, skipping")
			continue
		}

		terms[entry.taxonomyID] = Term{
			ID:          entry.termID,
			Name:        named.name,
			Slug:        named.slug,
			Taxonomy:    entry.taxonomy,
			Description: entry.description,
			Parent:      entry.parent,
			Count:       entry.count,
		}
	}
	return terms
}

// AttachTerms joins posts with their terms through wp_term_relationships
// (object_id -> term_taxonomy_id). Posts are immutable: the result is a new
// slice with Terms populated, source posts are untouched.
func (m *Mapper) AttachTerms(posts []Post, relCols []string, relRows []sqldump.Row, terms map[int64]Term) []Post {
	byPost := make(map[int64][]Term)
	for _, row := range relRows {
		fields := MapRow(relCols, row)
		objectID := m.parseID(fields["object_id"])
		term, ok := terms[m.parseID(fields["term_taxonomy_id"])]
		if !ok {
			continue
		}
		byPost[objectID] = append(byPost[objectID], term)
	}

	out := make([]Post, len(posts))
	for i, p := range posts {
		p.Terms = byPost[p.ID]
		out[i] = p
	}
	return out
}
