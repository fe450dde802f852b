// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package migrate

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/tomtom215/inkporter/internal/destination"
)

// Slugify derives a URL slug from a title: lowercase, non-alphanumerics
// stripped, whitespace collapsed to single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// resolveSlug probes the destination store for a free slug, appending -1,
// -2, ... on collision. Each attempt queries current store state, never a
// stale in-memory set, so the loop terminates and stays correct across
// reruns. ownID exempts the record's own existing document from counting as
// a collision on forced re-migration.
func resolveSlug(ctx context.Context, store destination.DocumentStore, base, ownID string) (string, error) {
	if base == "" {
		base = "untitled"
	}

	candidate := base
	for suffix := 1; ; suffix++ {
		taken, err := store.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		if ownID != "" {
			if doc, err := store.GetDocument(ctx, ownID); err == nil && doc != nil && doc.Slug == candidate {
				return candidate, nil
			}
		}
		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
}
