// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package destination

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory DocumentStore. It backs orchestrator tests and
// counts writes so idempotence properties are directly assertable.
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string]*Document
	Writes int
}

var _ DocumentStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Document)}
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) CreateDocument(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *doc
	s.docs[doc.ID] = &copied
	s.Writes++
	return nil
}

func (s *MemoryStore) GetDocument(_ context.Context, id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (s *MemoryStore) DocumentExists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[id]
	return ok, nil
}

func (s *MemoryStore) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.docs {
		if doc.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// MemoryAssets is an in-memory AssetService counting uploads, so dedup
// properties ("exactly one upload per unique source URL") are assertable.
type MemoryAssets struct {
	mu      sync.Mutex
	assets  map[string][]byte
	Uploads int

	// CDNBase is the fake CDN host used by ImageURL. Defaults to
	// "https://cdn.test/images".
	CDNBase string
}

var _ AssetService = (*MemoryAssets)(nil)

// NewMemoryAssets creates an empty in-memory asset service.
func NewMemoryAssets() *MemoryAssets {
	return &MemoryAssets{
		assets:  make(map[string][]byte),
		CDNBase: "https://cdn.test/images",
	}
}

func (a *MemoryAssets) UploadImage(_ context.Context, data []byte, _, _ string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := "img-" + uuid.NewString()
	a.assets[id] = data
	a.Uploads++
	return id, nil
}

func (a *MemoryAssets) ImageURL(assetID string, p ImageParams) string {
	u := a.CDNBase + "/" + assetID
	sep := "?"
	if p.Width > 0 {
		u += sep + "w=" + strconv.Itoa(p.Width)
		sep = "&"
	}
	if p.AutoFormat {
		u += sep + "auto=format"
		sep = "&"
	}
	if p.Quality > 0 {
		u += fmt.Sprintf("%sq=%d", sep, p.Quality)
	}
	return u
}

// Has reports whether an asset ID was uploaded.
func (a *MemoryAssets) Has(assetID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.assets[assetID]
	return ok
}
