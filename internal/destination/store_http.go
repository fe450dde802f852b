// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package destination

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/inkporter/internal/logging"
)

// maxErrorBodySize caps how much of an error response body is read back for
// diagnostics.
const maxErrorBodySize = 64 * 1024

// HTTPStoreConfig configures the destination document store client.
type HTTPStoreConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// HTTPStore talks to the destination document store over its JSON API.
// All calls go through a circuit breaker so a dead store fails fast instead
// of burning the per-record timeout on every remaining record.
type HTTPStore struct {
	baseURL string
	token   string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
}

var _ DocumentStore = (*HTTPStore)(nil)

// NewHTTPStore creates a document store client. The circuit opens after five
// consecutive failures and retries after 30 seconds.
func NewHTTPStore(cfg HTTPStoreConfig) *HTTPStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "destination-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A 404 is an expected answer for existence probes, not a store
		// failure; it must not open the circuit.
		IsSuccessful: func(err error) bool {
			return err == nil || isNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
		},
	})

	return &HTTPStore{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		cb:      cb,
	}
}

// Ping verifies the store answers at all.
func (s *HTTPStore) Ping(ctx context.Context) error {
	_, err := s.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return fmt.Errorf("destination store unreachable: %w", err)
	}
	return nil
}

// CreateDocument writes doc under its ID in one request.
func (s *HTTPStore) CreateDocument(ctx context.Context, doc *Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", doc.ID, err)
	}
	if _, err := s.do(ctx, http.MethodPut, "/documents/"+url.PathEscape(doc.ID), body); err != nil {
		return fmt.Errorf("create document %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocument fetches a document by ID; (nil, nil) when absent.
func (s *HTTPStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	body, err := s.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(id), nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &doc, nil
}

// DocumentExists reports whether the document ID is already present.
func (s *HTTPStore) DocumentExists(ctx context.Context, id string) (bool, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return false, err
	}
	return doc != nil, nil
}

// SlugExists queries the store for any document claiming slug.
func (s *HTTPStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	body, err := s.do(ctx, http.MethodGet, "/documents?slug="+url.QueryEscape(slug), nil)
	if err != nil {
		return false, fmt.Errorf("query slug %q: %w", slug, err)
	}

	var result struct {
		Documents []Document `json:"documents"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("decode slug query %q: %w", slug, err)
	}
	return len(result.Documents) > 0, nil
}

// statusError carries an HTTP status through the breaker so callers can
// distinguish 404 from real failures.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusNotFound
}

// do executes one request through the circuit breaker and returns the
// response body on 2xx.
func (s *HTTPStore) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	return s.cb.Execute(func() ([]byte, error) {
		var reqBody io.Reader = http.NoBody
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer func() {
			if closeErr := resp.Body.Close(); closeErr != nil {
				logging.Warn().Err(closeErr).Msg("Error closing response body")
			}
		}()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
			return nil, &statusError{status: resp.StatusCode, body: string(errBody)}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return body, nil
	})
}
