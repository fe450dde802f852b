// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package media

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/tomtom215/inkporter/internal/logging"
)

// imgSrcPattern extracts the src attribute of every img tag in a record
// body. The legacy editor emitted plain double- or single-quoted attributes;
// this is content rewriting, not HTML validation.
var imgSrcPattern = regexp.MustCompile(`<img[^>]*\bsrc=["']([^"']+)["']`)

// RewriteStats summarizes one body rewrite.
type RewriteStats struct {
	Found     int // unique migratable URLs discovered
	Rewritten int // URLs whose occurrences were replaced
	Failed    []*MigrateError
}

// FindReferences returns the unique migratable image URLs in body, in
// document order: every <img> src except data: URLs and URLs already on the
// destination host. Dry-run mode uses this to report intended migrations
// without any network I/O.
func (m *Migrator) FindReferences(body string) []string {
	seen := make(map[string]struct{})
	var sources []string
	for _, match := range imgSrcPattern.FindAllStringSubmatch(body, -1) {
		src := match[1]
		if _, dup := seen[src]; dup {
			continue
		}
		seen[src] = struct{}{}

		if strings.HasPrefix(src, "data:") {
			continue
		}
		if m.cfg.DestinationHost != "" && strings.Contains(src, m.cfg.DestinationHost) {
			continue
		}
		sources = append(sources, src)
	}
	return sources
}

// RewriteHTML migrates every image referenced by an <img> tag in body and
// replaces all occurrences of each source URL with the destination
// presentation URL. data: URLs and URLs already on the destination host are
// left alone. Individual failures leave their URL in place and are returned
// in the stats; they never abort the rewrite.
func (m *Migrator) RewriteHTML(ctx context.Context, body, recordRef string) (string, RewriteStats) {
	stats := RewriteStats{}

	sources := m.FindReferences(body)
	stats.Found = len(sources)

	// Longest URL first: when one source is a prefix of another
	// ("a.png" vs "a.png.webp"), replacing the shorter one first would
	// corrupt the longer one's occurrences.
	sort.SliceStable(sources, func(i, j int) bool {
		return len(sources[i]) > len(sources[j])
	})

	rewritten := body
	for _, src := range sources {
		assetID, err := m.MigrateReference(ctx, src, recordRef)
		if err != nil {
			var me *MigrateError
			if errors.As(err, &me) {
				stats.Failed = append(stats.Failed, me)
			} else {
				stats.Failed = append(stats.Failed, &MigrateError{URL: src, Reason: ReasonDownloadFailed, Err: err})
			}
			logging.Warn().
				Err(err).
				Str("source", src).
				Str("record", recordRef).
				Msg("Image left unrewritten")
			continue
		}

		// Literal replacement of every occurrence, not just inside img tags:
		// the same URL may also appear in links or srcset fragments.
		newURL := m.assets.ImageURL(assetID, m.cfg.Params)
		rewritten = strings.ReplaceAll(rewritten, src, newURL)
		stats.Rewritten++
	}

	return rewritten, stats
}
