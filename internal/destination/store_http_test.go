// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package destination

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func newStoreServer(t *testing.T) (*httptest.Server, map[string]*Document) {
	t.Helper()
	docs := make(map[string]*Document)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		slug := r.URL.Query().Get("slug")
		var matched []Document
		for _, d := range docs {
			if d.Slug == slug {
				matched = append(matched, *d)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"documents": matched})
	})
	mux.HandleFunc("/documents/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/documents/")
		switch r.Method {
		case http.MethodPut:
			var doc Document
			if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			docs[id] = &doc
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			doc, ok := docs[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(doc)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, docs
}

func TestHTTPStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create then get round-trips", func(t *testing.T) {
		srv, _ := newStoreServer(t)
		store := NewHTTPStore(HTTPStoreConfig{BaseURL: srv.URL, Token: "secret"})

		doc := &Document{ID: "post-1", Slug: "hello", Title: "Hello", LegacyID: 1}
		if err := store.CreateDocument(ctx, doc); err != nil {
			t.Fatalf("CreateDocument() error = %v", err)
		}

		got, err := store.GetDocument(ctx, "post-1")
		if err != nil {
			t.Fatalf("GetDocument() error = %v", err)
		}
		if got == nil || got.Slug != "hello" || got.LegacyID != 1 {
			t.Errorf("GetDocument() = %+v, want slug hello, legacy 1", got)
		}
	})

	t.Run("missing document is nil, not an error", func(t *testing.T) {
		srv, _ := newStoreServer(t)
		store := NewHTTPStore(HTTPStoreConfig{BaseURL: srv.URL})

		got, err := store.GetDocument(ctx, "post-404")
		if err != nil {
			t.Fatalf("GetDocument() error = %v", err)
		}
		if got != nil {
			t.Errorf("GetDocument() = %+v, want nil", got)
		}

		exists, err := store.DocumentExists(ctx, "post-404")
		if err != nil {
			t.Fatalf("DocumentExists() error = %v", err)
		}
		if exists {
			t.Errorf("DocumentExists() = true, want false")
		}
	})

	t.Run("slug query", func(t *testing.T) {
		srv, docs := newStoreServer(t)
		store := NewHTTPStore(HTTPStoreConfig{BaseURL: srv.URL})
		docs["post-9"] = &Document{ID: "post-9", Slug: "taken"}

		exists, err := store.SlugExists(ctx, "taken")
		if err != nil {
			t.Fatalf("SlugExists() error = %v", err)
		}
		if !exists {
			t.Errorf("SlugExists(taken) = false, want true")
		}

		exists, err = store.SlugExists(ctx, "free")
		if err != nil {
			t.Fatalf("SlugExists() error = %v", err)
		}
		if exists {
			t.Errorf("SlugExists(free) = true, want false")
		}
	})

	t.Run("ping against dead server fails", func(t *testing.T) {
		srv, _ := newStoreServer(t)
		store := NewHTTPStore(HTTPStoreConfig{BaseURL: srv.URL})
		srv.Close()

		if err := store.Ping(ctx); err == nil {
			t.Errorf("Ping() = nil, want error")
		}
	})

	t.Run("circuit opens after consecutive failures", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer failing.Close()

		store := NewHTTPStore(HTTPStoreConfig{BaseURL: failing.URL})
		for i := 0; i < 5; i++ {
			if _, err := store.GetDocument(ctx, "post-1"); err == nil {
				t.Fatalf("GetDocument() attempt %d = nil error, want failure", i)
			}
		}

		// Circuit is open now; the error comes from the breaker, not HTTP.
		_, err := store.GetDocument(ctx, "post-1")
		if err == nil || !strings.Contains(err.Error(), "open") {
			t.Errorf("GetDocument() after trip = %v, want open-circuit error", err)
		}
	})

	t.Run("404 probes do not trip the circuit", func(t *testing.T) {
		srv, _ := newStoreServer(t)
		store := NewHTTPStore(HTTPStoreConfig{BaseURL: srv.URL})

		for i := 0; i < 10; i++ {
			if _, err := store.GetDocument(ctx, "post-missing"); err != nil {
				t.Fatalf("GetDocument() probe %d error = %v", i, err)
			}
		}
		if err := store.Ping(ctx); err != nil {
			t.Errorf("Ping() after probes = %v, want nil", err)
		}
	})
}
