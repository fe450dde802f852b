// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

// Package media migrates image references from the legacy asset source to
// the destination asset service.
//
// The Migrator owns a run-scoped dedup cache keyed by the full source URL
// (query string included): each unique source URL is downloaded and uploaded
// at most once per run, no matter how many records reference it. The cache
// lives in process memory only and dies with the run.
package media

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/tomtom215/inkporter/internal/destination"
	"github.com/tomtom215/inkporter/internal/logging"
)

// Reason classifies a per-reference migration failure.
type Reason string

const (
	ReasonDownloadFailed    Reason = "download_failed"
	ReasonUploadFailed      Reason = "upload_failed"
	ReasonUnreachableSource Reason = "unreachable_source"
)

// MigrateError is the typed per-reference failure. The orchestrator records
// it against the owning record; it never aborts the run.
type MigrateError struct {
	URL    string
	Reason Reason
	Err    error
}

func (e *MigrateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("migrate %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("migrate %s: %s", e.URL, e.Reason)
}

func (e *MigrateError) Unwrap() error { return e.Err }

// Downloader fetches the raw bytes of a legacy asset.
type Downloader interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Config controls migration policy.
type Config struct {
	// DestinationHost is the asset CDN host. URLs already pointing there are
	// treated as migrated and passed through untouched.
	DestinationHost string

	// UnreachablePrefixes lists legacy URL prefixes whose assets are known
	// to be gone; references matching one are skipped, not failed.
	UnreachablePrefixes []string

	// Folder is the destination folder hint for uploads.
	Folder string

	// Params are the embedding parameters for rewritten presentation URLs.
	Params destination.ImageParams
}

// Stats counts migrator activity for the final report.
type Stats struct {
	Downloads   int
	Uploads     int
	CacheHits   int
	PassThrough int
	Unreachable int
}

// Migrator resolves source image URLs to destination asset identifiers.
type Migrator struct {
	cfg        Config
	downloader Downloader
	assets     destination.AssetService

	// cache maps source URL -> destination asset ID for this run.
	cache map[string]string
	stats Stats
}

// NewMigrator creates a media migrator with an empty dedup cache.
func NewMigrator(cfg Config, downloader Downloader, assets destination.AssetService) *Migrator {
	if cfg.Params == (destination.ImageParams{}) {
		cfg.Params = destination.DefaultImageParams()
	}
	return &Migrator{
		cfg:        cfg,
		downloader: downloader,
		assets:     assets,
		cache:      make(map[string]string),
	}
}

// Stats returns the activity counters accumulated so far.
func (m *Migrator) Stats() Stats { return m.stats }

// MigrateReference resolves one source URL to a destination asset
// identifier. A URL already on the destination host is returned unchanged.
// The dedup cache short-circuits repeated references with no network I/O.
func (m *Migrator) MigrateReference(ctx context.Context, sourceURL, recordRef string) (string, error) {
	if id, ok := m.cache[sourceURL]; ok {
		m.stats.CacheHits++
		return id, nil
	}

	if m.cfg.DestinationHost != "" && strings.Contains(sourceURL, m.cfg.DestinationHost) {
		m.stats.PassThrough++
		return sourceURL, nil
	}

	for _, prefix := range m.cfg.UnreachablePrefixes {
		if strings.HasPrefix(sourceURL, prefix) {
			m.stats.Unreachable++
			return "", &MigrateError{URL: sourceURL, Reason: ReasonUnreachableSource}
		}
	}

	data, err := m.downloader.Fetch(ctx, sourceURL)
	if err != nil {
		return "", &MigrateError{URL: sourceURL, Reason: ReasonDownloadFailed, Err: err}
	}
	m.stats.Downloads++

	assetID, err := m.assets.UploadImage(ctx, data, MIMEForPath(sourceURL), m.cfg.Folder)
	if err != nil {
		return "", &MigrateError{URL: sourceURL, Reason: ReasonUploadFailed, Err: err}
	}
	m.stats.Uploads++

	// Cached before returning so further references within the same record
	// reuse the identifier.
	m.cache[sourceURL] = assetID

	logging.Debug().
		Str("source", sourceURL).
		Str("asset_id", assetID).
		Str("record", recordRef).
		Msg("Migrated image reference")
	return assetID, nil
}

// MIMEForPath infers an image MIME type from the URL's path extension,
// defaulting to image/jpeg.
func MIMEForPath(rawURL string) string {
	clean := rawURL
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	switch strings.ToLower(path.Ext(clean)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".avif":
		return "image/avif"
	case ".bmp":
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}
