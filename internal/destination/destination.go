// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

// Package destination holds the clients for the two migration targets: the
// document store that receives migrated posts, and the asset service that
// receives migrated images and builds presentation URLs for them.
//
// Both collaborators are consumed behind interfaces so the orchestrator is
// wired by explicit dependency injection; in-memory implementations back the
// tests and dry-run verification.
package destination

import (
	"context"
	"fmt"
	"time"
)

// Document is the destination representation of one migrated post. The ID is
// derived from the legacy identifier, which is what makes re-runs idempotent:
// one legacy record can only ever map to one destination document.
type Document struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Status      string     `json:"status"`
	Kind        string     `json:"kind"` // "post" or "page"
	AuthorSlug  string     `json:"author_slug,omitempty"`
	Categories  []string   `json:"categories,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	FeaturedRef string     `json:"featured_ref,omitempty"` // destination asset identifier
	PublishedAt *time.Time `json:"published_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	LegacyID    int64      `json:"legacy_id"`
}

// DocumentID derives the destination document identifier for a legacy
// record. Stable across runs.
func DocumentID(legacyID int64) string {
	return fmt.Sprintf("post-%d", legacyID)
}

// DocumentStore is the destination document database.
type DocumentStore interface {
	// Ping verifies the store is reachable. Called once at startup; an
	// unreachable store is a fatal setup error.
	Ping(ctx context.Context) error

	// CreateDocument writes doc under doc.ID as one atomic unit.
	CreateDocument(ctx context.Context, doc *Document) error

	// GetDocument fetches a document by ID. Returns (nil, nil) when the
	// document does not exist.
	GetDocument(ctx context.Context, id string) (*Document, error)

	// DocumentExists reports whether a document with the given ID exists.
	// Backs the skip-existing policy.
	DocumentExists(ctx context.Context, id string) (bool, error)

	// SlugExists reports whether any document already claims slug. Always
	// queries current store state so slug probing is rerun-safe.
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// ImageParams are the embedding parameters applied when building a
// presentation URL for a migrated asset.
type ImageParams struct {
	Width      int
	AutoFormat bool
	Quality    int
}

// DefaultImageParams bounds embedded images and enables automatic
// format/quality negotiation.
func DefaultImageParams() ImageParams {
	return ImageParams{Width: 1200, AutoFormat: true, Quality: 80}
}

// AssetService is the destination asset store and CDN.
type AssetService interface {
	// UploadImage submits raw bytes with their MIME type and a folder hint,
	// returning the opaque destination asset identifier.
	UploadImage(ctx context.Context, data []byte, mimeType, folder string) (string, error)

	// ImageURL builds a renderable URL for an uploaded asset.
	ImageURL(assetID string, p ImageParams) string
}
