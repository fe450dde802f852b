// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

// Package config loads and validates Inkporter's layered configuration:
// built-in defaults, an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/inkporter/internal/validation"
)

// Config is the complete runtime configuration.
type Config struct {
	Source      SourceConfig      `koanf:"source"`
	Media       MediaConfig       `koanf:"media"`
	Destination DestinationConfig `koanf:"destination"`
	Migration   MigrationConfig   `koanf:"migration"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// SourceConfig locates the legacy SQL dump.
type SourceConfig struct {
	// DumpPath is the path to the legacy SQL dump file. Required unless
	// overridden by the --dump flag.
	DumpPath string `koanf:"dump_path"`

	// TablePrefix is the legacy table prefix, "wp_" in a stock install.
	TablePrefix string `koanf:"table_prefix"`
}

// MediaConfig controls how legacy asset references are fetched and which
// ones are written off as gone.
type MediaConfig struct {
	// UploadsPrefix is the public URL prefix of the legacy uploads tree.
	UploadsPrefix string `koanf:"uploads_prefix" validate:"omitempty,url"`

	// StorageBase reroutes uploads-tree fetches through the legacy
	// object-storage endpoint instead of the public URL.
	StorageBase string `koanf:"storage_base" validate:"omitempty,url"`

	// UnreachablePrefixes lists URL prefixes whose assets are known dead.
	UnreachablePrefixes []string `koanf:"unreachable_prefixes"`

	// Folder is the destination folder hint for uploaded assets.
	Folder string `koanf:"folder"`

	// DownloadTimeout bounds a single asset fetch.
	DownloadTimeout time.Duration `koanf:"download_timeout"`

	// ImageWidth, ImageQuality and AutoFormat shape the presentation URLs
	// written into rewritten HTML.
	ImageWidth   int  `koanf:"image_width" validate:"min=1,max=4000"`
	ImageQuality int  `koanf:"image_quality" validate:"min=1,max=100"`
	AutoFormat   bool `koanf:"auto_format"`
}

// DestinationConfig points at the destination CMS.
type DestinationConfig struct {
	// APIURL is the document store's API base URL.
	APIURL string `koanf:"api_url" validate:"omitempty,url"`

	// APIToken authenticates writes. Comes from the environment in
	// production; never commit it to a config file.
	APIToken string `koanf:"api_token"`

	// AssetUploadURL is the asset ingestion endpoint.
	AssetUploadURL string `koanf:"asset_upload_url" validate:"omitempty,url"`

	// CDNBaseURL is the public CDN base for migrated assets. Source URLs
	// already under it are passed through untouched.
	CDNBaseURL string `koanf:"cdn_base_url" validate:"omitempty,url"`

	// Timeout bounds a single API call.
	Timeout time.Duration `koanf:"timeout"`
}

// MigrationConfig holds run pacing and defaults that flags may override.
type MigrationConfig struct {
	// Delay is the pause between records.
	Delay time.Duration `koanf:"delay"`

	// SkipExisting makes every run idempotent by default.
	SkipExisting bool `koanf:"skip_existing"`
}

// LoggingConfig mirrors the logging package's setup.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks tag-level constraints, then the cross-field rules the
// tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateDestination(); err != nil {
		return err
	}
	return c.validateMedia()
}

func (c *Config) validateSource() error {
	if c.Source.TablePrefix == "" {
		return fmt.Errorf("source.table_prefix must not be empty")
	}
	return nil
}

func (c *Config) validateDestination() error {
	// A token without an endpoint is a config file pointing at nothing.
	if c.Destination.APIToken != "" && c.Destination.APIURL == "" {
		return fmt.Errorf("destination.api_token is set but destination.api_url is empty")
	}
	if c.Destination.Timeout <= 0 {
		return fmt.Errorf("destination.timeout must be positive, got %s", c.Destination.Timeout)
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.StorageBase != "" && c.Media.UploadsPrefix == "" {
		return fmt.Errorf("media.storage_base requires media.uploads_prefix so uploads-tree URLs can be recognized")
	}
	for _, p := range c.Media.UnreachablePrefixes {
		if !strings.HasPrefix(p, "http://") && !strings.HasPrefix(p, "https://") {
			return fmt.Errorf("media.unreachable_prefixes entry %q is not an absolute URL prefix", p)
		}
	}
	if c.Media.DownloadTimeout <= 0 {
		return fmt.Errorf("media.download_timeout must be positive, got %s", c.Media.DownloadTimeout)
	}
	return nil
}
