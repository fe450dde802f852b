// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package destination

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/inkporter/internal/logging"
)

// HTTPAssetsConfig configures the destination asset service client.
type HTTPAssetsConfig struct {
	// UploadURL is the asset ingestion endpoint.
	UploadURL string

	// CDNBaseURL is the public base used by ImageURL.
	CDNBaseURL string

	Token   string
	Timeout time.Duration
}

// HTTPAssets uploads images to the destination asset service and builds
// presentation URLs for them.
type HTTPAssets struct {
	uploadURL  string
	cdnBaseURL string
	token      string
	client     *http.Client
}

var _ AssetService = (*HTTPAssets)(nil)

// NewHTTPAssets creates an asset service client.
func NewHTTPAssets(cfg HTTPAssetsConfig) *HTTPAssets {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPAssets{
		uploadURL:  cfg.UploadURL,
		cdnBaseURL: cfg.CDNBaseURL,
		token:      cfg.Token,
		client:     &http.Client{Timeout: timeout},
	}
}

// UploadImage posts raw bytes and returns the opaque asset identifier.
func (a *HTTPAssets) UploadImage(ctx context.Context, data []byte, mimeType, folder string) (string, error) {
	endpoint := a.uploadURL
	if folder != "" {
		endpoint += "?folder=" + url.QueryEscape(folder)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Error closing upload response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", fmt.Errorf("upload returned status %d: %s", resp.StatusCode, errBody)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("upload response missing asset id")
	}
	return result.ID, nil
}

// ImageURL builds the renderable CDN URL for an asset: bounded width plus
// automatic format and quality negotiation.
func (a *HTTPAssets) ImageURL(assetID string, p ImageParams) string {
	q := url.Values{}
	if p.Width > 0 {
		q.Set("w", strconv.Itoa(p.Width))
	}
	if p.AutoFormat {
		q.Set("auto", "format")
	}
	if p.Quality > 0 {
		q.Set("q", strconv.Itoa(p.Quality))
	}

	u := a.cdnBaseURL + "/" + assetID
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}
