// Inkporter - Legacy Blog Content Migration Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/inkporter

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order. The
// first file found wins.
var DefaultConfigPaths = []string{
	"inkporter.yaml",
	"inkporter.yml",
	"/etc/inkporter/config.yaml",
	"/etc/inkporter/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "INKPORTER_CONFIG"

// defaultConfig returns a Config with every default filled in. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			DumpPath:    "",
			TablePrefix: "wp_",
		},
		Media: MediaConfig{
			UploadsPrefix:       "",
			StorageBase:         "",
			UnreachablePrefixes: []string{},
			Folder:              "migrated",
			DownloadTimeout:     30 * time.Second,
			ImageWidth:          1200,
			ImageQuality:        80,
			AutoFormat:          true,
		},
		Destination: DestinationConfig{
			APIURL:         "",
			APIToken:       "",
			AssetUploadURL: "",
			CDNBaseURL:     "",
			Timeout:        30 * time.Second,
		},
		Migration: MigrationConfig{
			Delay:        250 * time.Millisecond,
			SkipExisting: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// INKPORTER_DESTINATION_API_TOKEN -> destination.api_token
	envProvider := env.Provider("INKPORTER_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings pins each supported environment variable to its config path.
// Key names contain underscores themselves, so a mechanical
// underscore-to-dot transform cannot work.
var envMappings = map[string]string{
	"source_dump_path":    "source.dump_path",
	"source_table_prefix": "source.table_prefix",

	"media_uploads_prefix":       "media.uploads_prefix",
	"media_storage_base":         "media.storage_base",
	"media_unreachable_prefixes": "media.unreachable_prefixes",
	"media_folder":               "media.folder",
	"media_download_timeout":     "media.download_timeout",
	"media_image_width":          "media.image_width",
	"media_image_quality":        "media.image_quality",
	"media_auto_format":          "media.auto_format",

	"destination_api_url":          "destination.api_url",
	"destination_api_token":        "destination.api_token",
	"destination_asset_upload_url": "destination.asset_upload_url",
	"destination_cdn_base_url":     "destination.cdn_base_url",
	"destination_timeout":          "destination.timeout",

	"migration_delay":         "migration.delay",
	"migration_skip_existing": "migration.skip_existing",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable (with the INKPORTER_ prefix
// already stripped) to its koanf path. Unknown variables are dropped rather
// than guessed at.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "INKPORTER_"))
	if path, ok := envMappings[key]; ok {
		return path
	}
	return ""
}

// sliceConfigPaths lists paths parsed as comma-separated slices when they
// arrive as env var strings.
var sliceConfigPaths = []string{
	"media.unreachable_prefixes",
}

// processSliceFields converts comma-separated strings to slices for known
// slice fields. YAML files already deliver real slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}
