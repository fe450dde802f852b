// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPDownloaderConfig configures asset fetching.
type HTTPDownloaderConfig struct {
	// UploadsPrefix is the public URL prefix of the legacy uploads tree,
	// e.g. "https://legacy.example.com/wp-content/uploads/".
	UploadsPrefix string

	// StorageBase, when set, is the legacy object-storage endpoint. URLs
	// under UploadsPrefix are fetched from StorageBase plus the extracted
	// storage path instead of the public URL.
	StorageBase string

	Timeout time.Duration
}

// HTTPDownloader fetches legacy assets over HTTP(S), optionally rerouting
// uploads-tree URLs through the legacy object-storage API.
type HTTPDownloader struct {
	cfg    HTTPDownloaderConfig
	client *http.Client
}

var _ Downloader = (*HTTPDownloader)(nil)

// NewHTTPDownloader creates a downloader with a bounded request timeout.
func NewHTTPDownloader(cfg HTTPDownloaderConfig) *HTTPDownloader {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDownloader{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the asset bytes. Non-200 responses are errors; the caller
// wraps them into the per-record failure taxonomy.
func (d *HTTPDownloader) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	fetchURL := rawURL
	if d.cfg.StorageBase != "" && d.cfg.UploadsPrefix != "" {
		if storagePath, ok := strings.CutPrefix(rawURL, d.cfg.UploadsPrefix); ok {
			fetchURL = strings.TrimSuffix(d.cfg.StorageBase, "/") + "/" + storagePath
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fetchURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", fetchURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read download body: %w", err)
	}
	return data, nil
}
