// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package legacy

import (
	"strconv"
	"time"

	"github.com/tomtom215/inkporter/internal/logging"
	"github.com/tomtom215/inkporter/internal/sqldump"
)

// legacyDateLayout is how WordPress stores datetimes. Values are taken from
// the *_gmt columns and interpreted as UTC.
const legacyDateLayout = "2006-01-02 15:04:05"

// zeroDate is WordPress's "no date" sentinel.
const zeroDate = "0000-00-00 00:00:00"

// MapStats counts silent fallbacks taken while projecting rows. The
// orchestrator folds these into the final report so nothing is swallowed.
type MapStats struct {
	NullDates         int // date strings that could not be parsed
	DroppedTrash      int // posts with status "trash"
	DroppedType       int // rows whose post_type is not post/page
	UnknownStatus     int // statuses outside the known set, mapped to draft
	OrphanTaxonomies  int // taxonomy rows with no matching term
	ShortRows         int // rows shorter than the column schema
	UnknownTaxonomies int // taxonomies other than category/post_tag
}

// Mapper zips column schemas with tokenized rows into typed records.
type Mapper struct {
	stats MapStats
}

// NewMapper creates a record mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Stats returns the fallback counts accumulated so far.
func (m *Mapper) Stats() MapStats {
	return m.stats
}

// MapRow positionally zips columns with row values. A row shorter than the
// schema pads the trailing columns with NULL rather than faulting.
func MapRow(columns []string, row sqldump.Row) map[string]sqldump.Value {
	out := make(map[string]sqldump.Value, len(columns))
	for i, col := range columns {
		if i < len(row) {
			out[col] = row[i]
		} else {
			out[col] = sqldump.Null()
		}
	}
	return out
}

// Posts projects wp_posts rows into Post records. Rows that are not posts or
// pages are dropped, as are trashed posts; both drops are counted.
func (m *Mapper) Posts(columns []string, rows []sqldump.Row) []Post {
	posts := make([]Post, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(columns) {
			m.stats.ShortRows++
		}
		fields := MapRow(columns, row)

		postType := fields["post_type"].Str
		if postType != "post" && postType != "page" {
			m.stats.DroppedType++
			continue
		}

		status, keep := m.normalizeStatus(fields["post_status"])
		if !keep {
			m.stats.DroppedTrash++
			continue
		}

		id := m.parseID(fields["ID"])
		posts = append(posts, Post{
			ID:       id,
			AuthorID: m.parseID(fields["post_author"]),
			Title:    fields["post_title"].Str,
			Slug:     fields["post_name"].Str,
			Content:  fields["post_content"].Str,
			Excerpt:  fields["post_excerpt"].Str,
			Status:   status,
			Type:     postType,
			Date:     m.parseDate(id, fields["post_date_gmt"]),
			Modified: m.parseDate(id, fields["post_modified_gmt"]),
			GUID:     fields["guid"].Str,
		})
	}
	return posts
}

// Users projects wp_users rows into User records.
func (m *Mapper) Users(columns []string, rows []sqldump.Row) []User {
	users := make([]User, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(columns) {
			m.stats.ShortRows++
		}
		fields := MapRow(columns, row)

		id := m.parseID(fields["ID"])
		users = append(users, User{
			ID:          id,
			Login:       fields["user_login"].Str,
			Slug:        fields["user_nicename"].Str,
			Email:       fields["user_email"].Str,
			URL:         fields["user_url"].Str,
			DisplayName: fields["display_name"].Str,
			Registered:  m.parseDate(id, fields["user_registered"]),
		})
	}
	return users
}

// normalizeStatus maps a legacy post_status onto the destination status set.
// The second return is false when the record must be dropped entirely.
//
// Statuses outside the known set (including "pending", whose source intent
// is unconfirmed) import as drafts, matching the legacy exporter's behavior.
func (m *Mapper) normalizeStatus(v sqldump.Value) (Status, bool) {
	switch v.Str {
	case "publish":
		return StatusPublished, true
	case "future":
		return StatusScheduled, true
	case "draft", "private", "pending":
		return StatusDraft, true
	case "trash":
		return "", false
	default:
		m.stats.UnknownStatus++
		logging.Warn().Str("post_status", v.Str).Msg("Unknown legacy status, importing as draft")
		return StatusDraft, true
	}
}

// parseDate parses a legacy datetime as a UTC instant. Unparsable or zero
// dates map to nil with a logged warning, never an error.
func (m *Mapper) parseDate(id int64, v sqldump.Value) *time.Time {
	if v.Null || v.Str == "" || v.Str == zeroDate {
		return nil
	}
	t, err := time.ParseInLocation(legacyDateLayout, v.Str, time.UTC)
	if err != nil {
		m.stats.NullDates++
		logging.Warn().
			Int64("legacy_id", id).
			Str("value", v.Str).
			Msg("Unparsable legacy date, importing as null")
		return nil
	}
	return &t
}

// parseID parses a numeric identifier column; malformed IDs become 0.
func (m *Mapper) parseID(v sqldump.Value) int64 {
	if v.Null {
		return 0
	}
	n, err := strconv.ParseInt(v.Str, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
